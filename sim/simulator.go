// Wires ResourceGrid, BaseStation, UEs and SchedulerCore into the
// deterministic per-TTI simulation loop. The loop is a plain for-loop with
// no suspension points: every TTI runs traffic generation, mobility and
// channel updates, scheduling and dequeue, and stats recording in that
// fixed order before advancing to the next TTI.

package sim

import "github.com/sirupsen/logrus"

// Simulator owns every component of one run and drives the per-TTI pipeline
// from TTI 0 through Horizon-1.
type Simulator struct {
	Config SimulationConfig

	Grid      *ResourceGrid
	Station   *BaseStation
	Scheduler *SchedulerCore
	Stats     *StatsAggregator
	RNG       *PartitionedRNG

	UEs    []*UE
	ueByID map[int]*UE

	Mobility MobilityModel // optional; nil means UE positions never change
	Channel  ChannelModel  // optional; nil means CQI is whatever the caller seeded

	Clock   int64 // current TTI (ms) during Run; valid afterward as the last TTI executed
	Horizon int64 // total TTIs = NumFrames * 10
}

// NewSimulator validates cfg, constructs the grid/buffer/scheduler/stats
// stack, and registers one UE per id in ueIDs.
func NewSimulator(cfg SimulationConfig, ueIDs []int) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	grid, err := NewResourceGrid(cfg.Grid.BandwidthMHz, cfg.Grid.NumFrames)
	if err != nil {
		return nil, err
	}

	rng := NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	station := NewBaseStation(cfg.Buffer, rng)

	ues := make([]*UE, 0, len(ueIDs))
	ueByID := make(map[int]*UE, len(ueIDs))
	for _, id := range ueIDs {
		u := NewUE(id, cfg.PF.AvgFloor)
		ues = append(ues, u)
		ueByID[id] = u
		station.RegisterUE(id, nil)
	}

	return &Simulator{
		Config:    cfg,
		Grid:      grid,
		Station:   station,
		Scheduler: NewSchedulerCore(NewPolicy(cfg.Policy.Scheduler), cfg.PF),
		Stats:     NewStatsAggregator(cfg.Grid.BandwidthMHz),
		RNG:       rng,
		UEs:       ues,
		ueByID:    ueByID,
		Horizon:   int64(cfg.Grid.NumFrames) * 10,
	}, nil
}

// SetDefaultTrafficModel sets the traffic model used for any UE registered
// without its own.
func (s *Simulator) SetDefaultTrafficModel(model TrafficModel) {
	s.Station.SetDefaultTrafficModel(model)
}

// SetTrafficModel assigns a per-UE traffic model, overriding the default.
func (s *Simulator) SetTrafficModel(ueID int, model TrafficModel) {
	s.Station.RegisterUE(ueID, model)
}

// SetMobility wires in a mobility model; nil disables position updates.
func (s *Simulator) SetMobility(m MobilityModel) { s.Mobility = m }

// SetChannel wires in a channel model; nil leaves CQI as last set.
func (s *Simulator) SetChannel(c ChannelModel) { s.Channel = c }

// UE returns the UE state for ueID, or nil if it was never registered.
func (s *Simulator) UE(ueID int) *UE { return s.ueByID[ueID] }

// Run executes the full horizon TTI-by-TTI and returns the aggregate
// report built from every recorded snapshot. The loop has no suspension
// points: each TTI completes traffic generation, mobility/channel updates,
// scheduling and stats recording before the next TTI begins.
func (s *Simulator) Run() Report {
	for tti := int64(0); tti < s.Horizon; tti++ {
		s.Clock = tti

		if err := s.Station.GenerateTraffic(tti, 1, nil, s.Config.Buffer.DefaultTTLMs); err != nil {
			logrus.WithError(err).Warnf("[tti %07d] traffic generation skipped", tti)
		}

		for _, u := range s.UEs {
			if s.Mobility != nil {
				u.Position = s.Mobility.Step(u.ID, tti, s.RNG.ForSubsystem(SubsystemMobility), u.Position)
			}
			if s.Channel != nil {
				u.CQI = s.Channel.CQI(u.ID, tti, u.Position, s.RNG.ForSubsystem(SubsystemChannel))
			}
		}

		result := s.Scheduler.Schedule(tti, s.UEs, s.Station.Buffer(), s.Grid)
		s.Stats.RecordTTI(result.Statistics)

		logrus.Debugf("[tti %07d] allocated_rbs=%d scheduled_ues=%d",
			tti, result.Statistics.TotalAllocatedRBs, len(result.Allocation))
	}

	logrus.Infof("[tti %07d] simulation complete", s.Horizon)
	return s.Stats.BuildReport()
}
