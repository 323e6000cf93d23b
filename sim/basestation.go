// Implements BaseStation: UE registration lifecycle, traffic injection into
// the shared downlink buffer, and aggregate buffer telemetry.

package sim

import (
	"fmt"
	"math/rand"
)

// TrafficModel emits packet-arrival sizes (bytes) for the half-open interval
// (fromMs, toMs]. Implementations (Poisson, ON/OFF, MMPP — see the traffic
// package) draw from rng, which the BaseStation derives per UE so streams
// stay isolated and reproducible under a fixed master seed.
type TrafficModel interface {
	GenerateArrivals(fromMs, toMs int64, rng *rand.Rand) []int
}

// GlobalBufferStatus is the aggregate telemetry snapshot returned by
// GetGlobalBufferStatus.
type GlobalBufferStatus struct {
	TotalSize    int64
	TotalPackets int
	TotalDropped int
	TotalExpired int
	AvgDelayMs   float64
	MaxDelayMs   int64

	PerUE            map[int]UEBufferStatus
	PerUEUtilisation map[int]float64 // sizes[ue] / per_ue_max, in [0,1]
}

// BaseStation owns the shared downlink buffer for every UE it serves and
// routes generated traffic into it.
type BaseStation struct {
	buffer *DLBuffer
	rng    *PartitionedRNG

	trafficModels       map[int]TrafficModel
	defaultTrafficModel TrafficModel
}

// NewBaseStation constructs a BaseStation backed by a fresh DLBuffer.
// cfg should already be validated.
func NewBaseStation(cfg BufferConfig, rng *PartitionedRNG) *BaseStation {
	return &BaseStation{
		buffer:        NewDLBuffer(cfg),
		rng:           rng,
		trafficModels: make(map[int]TrafficModel),
	}
}

// Buffer exposes the shared downlink buffer for components (scheduler,
// stats) that need direct read/dequeue access.
func (s *BaseStation) Buffer() *DLBuffer { return s.buffer }

// SetDefaultTrafficModel sets the model used for UEs registered without one.
func (s *BaseStation) SetDefaultTrafficModel(model TrafficModel) {
	s.defaultTrafficModel = model
}

// RegisterUE instantiates a queue for ueID and associates it with a
// per-UE traffic model. Pass nil to fall back to the default model.
func (s *BaseStation) RegisterUE(ueID int, model TrafficModel) {
	s.buffer.RegisterUE(ueID)
	if model != nil {
		s.trafficModels[ueID] = model
	}
}

// DeregisterUE tears down ueID's queue and forgets its traffic model.
func (s *BaseStation) DeregisterUE(ueID int) {
	s.buffer.DeregisterUE(ueID)
	delete(s.trafficModels, ueID)
}

// ClearAllBuffers tears down every registered UE's queue and counters.
func (s *BaseStation) ClearAllBuffers() {
	s.buffer.ClearAllBuffers()
}

// GenerateTraffic asks the traffic model for packets arriving in
// (now-dt, now], wraps each as a Packet with ttlMs, and submits it to the
// buffer. If ueID is nil, traffic is generated for every registered UE.
// Returns a ConfigurationError if no UEs are registered.
func (s *BaseStation) GenerateTraffic(nowMs, dtMs int64, ueID *int, ttlMs int64) error {
	registered := s.buffer.RegisteredUEs()
	if len(registered) == 0 {
		return fmt.Errorf("ConfigurationError: GenerateTraffic called with no UEs registered")
	}

	targets := registered
	if ueID != nil {
		targets = []int{*ueID}
	}

	fromMs := nowMs - dtMs
	for _, id := range targets {
		model := s.trafficModels[id]
		if model == nil {
			model = s.defaultTrafficModel
		}
		if model == nil {
			continue
		}

		rng := s.rng.ForSubsystem(fmt.Sprintf("%s_ue_%d", SubsystemTraffic, id))
		for _, size := range model.GenerateArrivals(fromMs, nowMs, rng) {
			if size <= 0 {
				continue
			}
			pkt := &Packet{
				SizeBytes:      size,
				UEID:           id,
				CreationTimeMs: nowMs,
				TTLMs:          ttlMs,
			}
			s.buffer.AddPacket(pkt, nowMs)
		}
	}
	return nil
}

// GetGlobalBufferStatus aggregates per-UE buffer telemetry across every
// registered UE.
func (s *BaseStation) GetGlobalBufferStatus(nowMs int64) GlobalBufferStatus {
	status := GlobalBufferStatus{
		PerUE:            make(map[int]UEBufferStatus),
		PerUEUtilisation: make(map[int]float64),
	}

	perUEMax := s.buffer.PerUEMax()
	var delayWeightedSum float64
	for _, ueID := range s.buffer.RegisteredUEs() {
		ueStatus := s.buffer.GetUEStatus(ueID, nowMs)
		status.PerUE[ueID] = ueStatus

		if perUEMax > 0 {
			status.PerUEUtilisation[ueID] = float64(ueStatus.SizeBytes) / float64(perUEMax)
		}

		status.TotalSize += ueStatus.SizeBytes
		status.TotalPackets += ueStatus.PacketCount
		status.TotalDropped += ueStatus.Dropped
		status.TotalExpired += ueStatus.Expired
		delayWeightedSum += ueStatus.AvgDelayMs * float64(ueStatus.PacketCount)
		if ueStatus.OldestDelayMs > status.MaxDelayMs {
			status.MaxDelayMs = ueStatus.OldestDelayMs
		}
	}

	if status.TotalPackets > 0 {
		status.AvgDelayMs = delayWeightedSum / float64(status.TotalPackets)
	}
	return status
}
