// Implements the per-UE downlink buffer owned by a BaseStation: FIFO
// queues with global and per-UE byte caps, TTL expiry, byte-accurate
// fragmentation on dequeue, and drop/expire/ingress accounting.
//
// The source repo this was modeled on carried two competing buffer
// implementations (an older UE-owned buffer and this BS-owned one); the
// BS-owned model is authoritative (see DESIGN.md) — one DLBuffer instance
// is shared across every UE a BaseStation serves, since the global cap
// requires bookkeeping shared across UEs.

package sim

import "fmt"

// Admission-reject reasons (soft errors, counted in Dropped/DroppedInfo —
// never propagated as Go errors).
const (
	ReasonUELimit     = "ue_limit"
	ReasonGlobalLimit = "global_limit"
)

// DroppedPacketInfo records one admission rejection for telemetry.
type DroppedPacketInfo struct {
	SizeBytes int
	Reason    string
	AtTimeMs  int64
}

// UEBufferStatus is the snapshot returned by GetUEStatus.
type UEBufferStatus struct {
	SizeBytes      int64
	PacketCount    int
	OldestDelayMs  int64
	AvgDelayMs     float64
	Dropped        int
	Expired        int
	IngressBytes   int64
	IngressRateBps float64
}

// DLBuffer is the per-UE FIFO queue set owned by one BaseStation, with a
// global byte cap shared across every registered UE and a per-UE byte cap.
type DLBuffer struct {
	globalMax int64
	perUEMax  int64

	queues map[int][]*Packet
	sizes  map[int]int64
	totalSize int64

	dropped     map[int]int
	droppedInfo map[int][]DroppedPacketInfo
	expired     map[int]int

	ingressBytes map[int]int64
	ingressStart map[int]int64 // first-arrival time per UE; absent until first packet
}

// NewDLBuffer constructs a buffer from validated config. Callers should run
// cfg.Validate() first; NewDLBuffer does not re-validate.
func NewDLBuffer(cfg BufferConfig) *DLBuffer {
	return &DLBuffer{
		globalMax:    cfg.GlobalMaxBytes,
		perUEMax:     cfg.PerUEMaxBytes,
		queues:       make(map[int][]*Packet),
		sizes:        make(map[int]int64),
		dropped:      make(map[int]int),
		droppedInfo:  make(map[int][]DroppedPacketInfo),
		expired:      make(map[int]int),
		ingressBytes: make(map[int]int64),
		ingressStart: make(map[int]int64),
	}
}

// RegisterUE ensures ueID has a (possibly empty) queue, so status queries
// and telemetry work before the first packet arrives.
func (b *DLBuffer) RegisterUE(ueID int) {
	if _, ok := b.queues[ueID]; !ok {
		b.queues[ueID] = nil
	}
}

// expireAll walks ueID's whole queue dropping TTL-expired packets,
// incrementing Expired[ueID] for each. Used by AddPacket (spec 4.3 step 1)
// and UpdateUEBuffer.
func (b *DLBuffer) expireAll(ueID int, nowMs int64) {
	q := b.queues[ueID]
	if len(q) == 0 {
		return
	}
	kept := q[:0:0]
	for _, p := range q {
		if p.Expired(nowMs) {
			b.expired[ueID]++
			b.sizes[ueID] -= int64(p.SizeBytes)
			b.totalSize -= int64(p.SizeBytes)
		} else {
			kept = append(kept, p)
		}
	}
	b.queues[ueID] = kept
}

// expireHead drops TTL-expired packets from the front of ueID's queue only,
// used by GetPackets (spec 4.3: "expire TTL-stale packets at the head").
func (b *DLBuffer) expireHead(ueID int, nowMs int64) {
	q := b.queues[ueID]
	i := 0
	for i < len(q) && q[i].Expired(nowMs) {
		b.expired[ueID]++
		b.sizes[ueID] -= int64(q[i].SizeBytes)
		b.totalSize -= int64(q[i].SizeBytes)
		i++
	}
	b.queues[ueID] = q[i:]
}

// AddPacket admits pkt into its UE's queue, enforcing TTL expiry first and
// then the per-UE and global byte caps in that order. Returns (true, "") on
// admission, or (false, reason) on a soft admission reject — never an error.
func (b *DLBuffer) AddPacket(pkt *Packet, nowMs int64) (bool, string) {
	ueID := pkt.UEID
	b.expireAll(ueID, nowMs)

	if b.sizes[ueID]+int64(pkt.SizeBytes) > b.perUEMax {
		b.dropped[ueID]++
		b.droppedInfo[ueID] = append(b.droppedInfo[ueID], DroppedPacketInfo{
			SizeBytes: pkt.SizeBytes, Reason: ReasonUELimit, AtTimeMs: nowMs,
		})
		return false, ReasonUELimit
	}
	if b.totalSize+int64(pkt.SizeBytes) > b.globalMax {
		b.dropped[ueID]++
		b.droppedInfo[ueID] = append(b.droppedInfo[ueID], DroppedPacketInfo{
			SizeBytes: pkt.SizeBytes, Reason: ReasonGlobalLimit, AtTimeMs: nowMs,
		})
		return false, ReasonGlobalLimit
	}

	if _, ok := b.ingressStart[ueID]; !ok {
		b.ingressStart[ueID] = nowMs
	}
	b.queues[ueID] = append(b.queues[ueID], pkt)
	b.sizes[ueID] += int64(pkt.SizeBytes)
	b.totalSize += int64(pkt.SizeBytes)
	b.ingressBytes[ueID] += int64(pkt.SizeBytes)
	return true, ""
}

// GetPackets expires stale packets at the head, then dequeues whole packets
// up to maxBytes (in bytes); if the next packet would overflow the budget it
// is fragmented so exactly maxBytes*8 bits (or everything available, if
// less) are extracted. bitsPerRB is accepted for interface parity with the
// scheduler's call site (spec 4.5.4) but does not affect fragment sizing —
// the budget is already expressed in maxBytes.
func (b *DLBuffer) GetPackets(ueID int, maxBytes int64, bitsPerRB int, nowMs int64) ([]*Packet, int64) {
	_ = bitsPerRB
	b.expireHead(ueID, nowMs)

	maxBits := maxBytes * 8
	q := b.queues[ueID]

	var out []*Packet
	var bitsUsed int64
	idx := 0

	for idx < len(q) {
		p := q[idx]
		pBits := int64(p.SizeBytes) * 8
		if bitsUsed+pBits <= maxBits {
			out = append(out, p)
			bitsUsed += pBits
			idx++
			continue
		}

		remainingBits := maxBits - bitsUsed
		fragBytes := remainingBits / 8
		if fragBytes > 0 {
			frag := &Packet{
				SizeBytes:      int(fragBytes),
				UEID:           ueID,
				CreationTimeMs: p.CreationTimeMs,
				Priority:       p.Priority,
				TTLMs:          p.TTLMs,
				IsFragment:     true,
			}
			out = append(out, frag)
			bitsUsed += fragBytes * 8

			p.SizeBytes -= int(fragBytes)
			p.CreationTimeMs = nowMs // residual packet modeled as re-buffered
		}
		break
	}

	b.queues[ueID] = q[idx:]
	bytesExtracted := bitsUsed / 8
	b.sizes[ueID] -= bytesExtracted
	b.totalSize -= bytesExtracted
	return out, bytesExtracted
}

// UpdateUEBuffer runs a TTL sweep only (no dequeue) and returns the count of
// packets expired by this call.
func (b *DLBuffer) UpdateUEBuffer(ueID int, nowMs int64) int {
	before := b.expired[ueID]
	b.expireAll(ueID, nowMs)
	return b.expired[ueID] - before
}

// GetUEStatus returns a telemetry snapshot for ueID at time now.
func (b *DLBuffer) GetUEStatus(ueID int, nowMs int64) UEBufferStatus {
	q := b.queues[ueID]
	status := UEBufferStatus{
		SizeBytes:    b.sizes[ueID],
		PacketCount:  len(q),
		Dropped:      b.dropped[ueID],
		Expired:      b.expired[ueID],
		IngressBytes: b.ingressBytes[ueID],
	}

	if len(q) > 0 {
		var sumDelay int64
		var maxDelay int64
		for _, p := range q {
			d := nowMs - p.CreationTimeMs
			sumDelay += d
			if d > maxDelay {
				maxDelay = d
			}
		}
		status.OldestDelayMs = maxDelay
		status.AvgDelayMs = float64(sumDelay) / float64(len(q))
	}

	if start, ok := b.ingressStart[ueID]; ok {
		elapsedMs := nowMs - start
		if elapsedMs > 0 {
			status.IngressRateBps = float64(status.IngressBytes*8) / (float64(elapsedMs) / 1000.0)
		}
	}
	return status
}

// TotalSize returns the current sum of sizes across every registered UE.
func (b *DLBuffer) TotalSize() int64 { return b.totalSize }

// BufferSize returns the current byte size of ueID's queue.
func (b *DLBuffer) BufferSize(ueID int) int64 { return b.sizes[ueID] }

// DroppedInfo returns the recorded admission rejections for ueID.
func (b *DLBuffer) DroppedInfo(ueID int) []DroppedPacketInfo { return b.droppedInfo[ueID] }

// RegisteredUEs returns the set of UE IDs with a queue entry (possibly empty).
func (b *DLBuffer) RegisteredUEs() []int {
	ids := make([]int, 0, len(b.queues))
	for id := range b.queues {
		ids = append(ids, id)
	}
	return ids
}

// PerUEMax returns the configured per-UE byte cap.
func (b *DLBuffer) PerUEMax() int64 { return b.perUEMax }

// DeregisterUE tears down ueID's queue and every counter tracked for it.
func (b *DLBuffer) DeregisterUE(ueID int) {
	b.totalSize -= b.sizes[ueID]
	delete(b.queues, ueID)
	delete(b.sizes, ueID)
	delete(b.dropped, ueID)
	delete(b.droppedInfo, ueID)
	delete(b.expired, ueID)
	delete(b.ingressBytes, ueID)
	delete(b.ingressStart, ueID)
}

// ClearAllBuffers tears down every UE's queue and resets all counters.
func (b *DLBuffer) ClearAllBuffers() {
	b.queues = make(map[int][]*Packet)
	b.sizes = make(map[int]int64)
	b.totalSize = 0
	b.dropped = make(map[int]int)
	b.droppedInfo = make(map[int][]DroppedPacketInfo)
	b.expired = make(map[int]int)
	b.ingressBytes = make(map[int]int64)
	b.ingressStart = make(map[int]int64)
}

// checkInvariants is a debug helper asserting the buffer's documented
// size-accounting invariants; used by tests, not the hot path.
func (b *DLBuffer) checkInvariants() error {
	var sum int64
	for ueID, size := range b.sizes {
		if size > b.perUEMax {
			return fmt.Errorf("UE %d size %d exceeds per_ue_max %d", ueID, size, b.perUEMax)
		}
		var qsum int64
		for _, p := range b.queues[ueID] {
			qsum += int64(p.SizeBytes)
		}
		if qsum != size {
			return fmt.Errorf("UE %d tracked size %d != queue sum %d", ueID, size, qsum)
		}
		sum += size
	}
	if sum != b.totalSize {
		return fmt.Errorf("tracked totalSize %d != sum of per-UE sizes %d", b.totalSize, sum)
	}
	if b.totalSize > b.globalMax {
		return fmt.Errorf("totalSize %d exceeds global_max %d", b.totalSize, b.globalMax)
	}
	return nil
}
