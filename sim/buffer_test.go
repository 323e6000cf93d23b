package sim

import "testing"

func newTestBuffer(globalMax, perUEMax, ttl int64) *DLBuffer {
	return NewDLBuffer(BufferConfig{GlobalMaxBytes: globalMax, PerUEMaxBytes: perUEMax, DefaultTTLMs: ttl})
}

func TestAddPacket_AdmitsWithinCaps(t *testing.T) {
	b := newTestBuffer(10000, 5000, 1000)
	ok, reason := b.AddPacket(&Packet{SizeBytes: 100, UEID: 1, TTLMs: 1000}, 0)
	if !ok || reason != "" {
		t.Fatalf("expected admission, got ok=%v reason=%q", ok, reason)
	}
	if b.BufferSize(1) != 100 {
		t.Errorf("BufferSize(1) = %d, want 100", b.BufferSize(1))
	}
	if b.TotalSize() != 100 {
		t.Errorf("TotalSize = %d, want 100", b.TotalSize())
	}
}

func TestAddPacket_RejectsOverPerUECap(t *testing.T) {
	b := newTestBuffer(10000, 500, 1000)
	b.AddPacket(&Packet{SizeBytes: 400, UEID: 1, TTLMs: 1000}, 0)
	ok, reason := b.AddPacket(&Packet{SizeBytes: 200, UEID: 1, TTLMs: 1000}, 0)
	if ok || reason != ReasonUELimit {
		t.Errorf("got ok=%v reason=%q, want rejection with ue_limit", ok, reason)
	}
	status := b.GetUEStatus(1, 0)
	if status.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", status.Dropped)
	}
	info := b.DroppedInfo(1)
	if len(info) != 1 || info[0].Reason != ReasonUELimit || info[0].SizeBytes != 200 {
		t.Errorf("unexpected DroppedInfo: %+v", info)
	}
}

func TestAddPacket_RejectsOverGlobalCap(t *testing.T) {
	b := newTestBuffer(500, 500, 1000)
	b.AddPacket(&Packet{SizeBytes: 300, UEID: 1, TTLMs: 1000}, 0)
	ok, reason := b.AddPacket(&Packet{SizeBytes: 300, UEID: 2, TTLMs: 1000}, 0)
	if ok || reason != ReasonGlobalLimit {
		t.Errorf("got ok=%v reason=%q, want rejection with global_limit", ok, reason)
	}
}

func TestAddPacket_PerUECapDoesNotBlockOtherUEs(t *testing.T) {
	b := newTestBuffer(10000, 500, 1000)
	b.AddPacket(&Packet{SizeBytes: 500, UEID: 1, TTLMs: 1000}, 0)
	ok, _ := b.AddPacket(&Packet{SizeBytes: 500, UEID: 2, TTLMs: 1000}, 0)
	if !ok {
		t.Error("UE 2 should be unaffected by UE 1's per-UE cap")
	}
}

func TestAddPacket_ExpiresStaleBeforeAdmission(t *testing.T) {
	b := newTestBuffer(10000, 1000, 100)
	b.AddPacket(&Packet{SizeBytes: 200, UEID: 1, TTLMs: 100, CreationTimeMs: 0}, 0)
	// advance time past TTL, add another packet — the first should be swept first
	b.AddPacket(&Packet{SizeBytes: 50, UEID: 1, TTLMs: 100, CreationTimeMs: 500}, 500)
	status := b.GetUEStatus(1, 500)
	if status.Expired != 1 {
		t.Errorf("Expired = %d, want 1", status.Expired)
	}
	if status.SizeBytes != 50 {
		t.Errorf("SizeBytes = %d, want 50 (only the fresh packet)", status.SizeBytes)
	}
}

func TestGetPackets_DequeuesWholePacketsWithinBudget(t *testing.T) {
	b := newTestBuffer(10000, 5000, 1000)
	b.AddPacket(&Packet{SizeBytes: 100, UEID: 1, TTLMs: 1000}, 0)
	b.AddPacket(&Packet{SizeBytes: 100, UEID: 1, TTLMs: 1000}, 0)
	b.AddPacket(&Packet{SizeBytes: 100, UEID: 1, TTLMs: 1000}, 0)

	packets, extracted := b.GetPackets(1, 250, 492, 10)
	if extracted != 200 {
		t.Errorf("extracted = %d, want 200 (two whole packets, not a partial third)", extracted)
	}
	if len(packets) != 2 {
		t.Errorf("len(packets) = %d, want 2", len(packets))
	}
	for _, p := range packets {
		if p.IsFragment {
			t.Error("whole packets should not be marked as fragments")
		}
	}
	if b.BufferSize(1) != 100 {
		t.Errorf("remaining BufferSize = %d, want 100", b.BufferSize(1))
	}
}

func TestGetPackets_FragmentsOverflowingPacket(t *testing.T) {
	b := newTestBuffer(10000, 5000, 1000)
	b.AddPacket(&Packet{SizeBytes: 150, UEID: 1, TTLMs: 1000, CreationTimeMs: 0, Priority: 3}, 0)

	packets, extracted := b.GetPackets(1, 100, 492, 10)
	if extracted != 100 {
		t.Fatalf("extracted = %d, want 100", extracted)
	}
	if len(packets) != 1 {
		t.Fatalf("len(packets) = %d, want 1", len(packets))
	}
	frag := packets[0]
	if !frag.IsFragment {
		t.Error("expected fragment flag set")
	}
	if frag.SizeBytes != 100 {
		t.Errorf("fragment SizeBytes = %d, want 100", frag.SizeBytes)
	}
	if frag.Priority != 3 {
		t.Errorf("fragment should preserve Priority, got %d", frag.Priority)
	}
	// residual packet stays in the queue with the remaining bytes
	if b.BufferSize(1) != 50 {
		t.Errorf("residual BufferSize = %d, want 50", b.BufferSize(1))
	}
}

func TestGetPackets_ByteConservationAcrossFragmentation(t *testing.T) {
	b := newTestBuffer(10000, 5000, 1000)
	b.AddPacket(&Packet{SizeBytes: 73, UEID: 1, TTLMs: 1000}, 0)
	b.AddPacket(&Packet{SizeBytes: 40, UEID: 1, TTLMs: 1000}, 0)
	totalBefore := b.BufferSize(1)

	_, extracted1 := b.GetPackets(1, 50, 300, 0)
	remaining := b.BufferSize(1)
	if extracted1+remaining != totalBefore {
		t.Errorf("byte conservation violated: extracted=%d remaining=%d total=%d", extracted1, remaining, totalBefore)
	}

	_, extracted2 := b.GetPackets(1, 1000, 300, 0)
	if b.BufferSize(1) != 0 {
		t.Errorf("queue should be drained, got %d bytes left", b.BufferSize(1))
	}
	if extracted1+extracted2 != totalBefore {
		t.Errorf("total extracted %d != original total %d", extracted1+extracted2, totalBefore)
	}
}

func TestGetPackets_ZeroBudgetExtractsNothing(t *testing.T) {
	b := newTestBuffer(10000, 5000, 1000)
	b.AddPacket(&Packet{SizeBytes: 100, UEID: 1, TTLMs: 1000}, 0)
	packets, extracted := b.GetPackets(1, 0, 492, 0)
	if extracted != 0 || len(packets) != 0 {
		t.Errorf("expected no extraction with zero budget, got extracted=%d packets=%d", extracted, len(packets))
	}
}

func TestGetPackets_ExpiresHeadBeforeDequeue(t *testing.T) {
	b := newTestBuffer(10000, 5000, 100)
	b.AddPacket(&Packet{SizeBytes: 50, UEID: 1, TTLMs: 100, CreationTimeMs: 0}, 0)
	b.AddPacket(&Packet{SizeBytes: 50, UEID: 1, TTLMs: 1000, CreationTimeMs: 0}, 0)

	packets, extracted := b.GetPackets(1, 1000, 300, 500)
	if extracted != 50 {
		t.Errorf("extracted = %d, want 50 (only the non-stale packet)", extracted)
	}
	if len(packets) != 1 {
		t.Errorf("len(packets) = %d, want 1", len(packets))
	}
	if b.GetUEStatus(1, 500).Expired != 1 {
		t.Error("expected the stale head packet to be counted as expired")
	}
}

func TestUpdateUEBuffer_SweepsWithoutDequeue(t *testing.T) {
	b := newTestBuffer(10000, 5000, 100)
	b.AddPacket(&Packet{SizeBytes: 50, UEID: 1, TTLMs: 100, CreationTimeMs: 0}, 0)
	b.AddPacket(&Packet{SizeBytes: 50, UEID: 1, TTLMs: 1000, CreationTimeMs: 0}, 0)

	expiredCount := b.UpdateUEBuffer(1, 500)
	if expiredCount != 1 {
		t.Errorf("UpdateUEBuffer returned %d, want 1", expiredCount)
	}
	if b.BufferSize(1) != 50 {
		t.Errorf("BufferSize = %d, want 50 after sweep", b.BufferSize(1))
	}
}

func TestGetUEStatus_DelayAndIngressTelemetry(t *testing.T) {
	b := newTestBuffer(10000, 5000, 1000)
	b.AddPacket(&Packet{SizeBytes: 100, UEID: 1, TTLMs: 1000, CreationTimeMs: 0}, 0)
	b.AddPacket(&Packet{SizeBytes: 100, UEID: 1, TTLMs: 1000, CreationTimeMs: 0}, 0)

	status := b.GetUEStatus(1, 200)
	if status.PacketCount != 2 {
		t.Errorf("PacketCount = %d, want 2", status.PacketCount)
	}
	if status.OldestDelayMs != 200 {
		t.Errorf("OldestDelayMs = %d, want 200", status.OldestDelayMs)
	}
	if status.AvgDelayMs != 200 {
		t.Errorf("AvgDelayMs = %v, want 200", status.AvgDelayMs)
	}
	wantRate := float64(200*8) / (200.0 / 1000.0)
	if status.IngressRateBps != wantRate {
		t.Errorf("IngressRateBps = %v, want %v", status.IngressRateBps, wantRate)
	}
}

func TestGetUEStatus_EmptyQueueHasZeroDelay(t *testing.T) {
	b := newTestBuffer(10000, 5000, 1000)
	b.RegisterUE(7)
	status := b.GetUEStatus(7, 100)
	if status.OldestDelayMs != 0 || status.AvgDelayMs != 0 || status.PacketCount != 0 {
		t.Errorf("expected zeroed status for empty queue, got %+v", status)
	}
}

func TestDLBuffer_CheckInvariantsHolds(t *testing.T) {
	b := newTestBuffer(10000, 5000, 1000)
	b.AddPacket(&Packet{SizeBytes: 321, UEID: 1, TTLMs: 1000}, 0)
	b.AddPacket(&Packet{SizeBytes: 111, UEID: 2, TTLMs: 1000}, 0)
	b.GetPackets(1, 200, 492, 10)

	if err := b.checkInvariants(); err != nil {
		t.Errorf("invariant check failed: %v", err)
	}
}

func TestRegisteredUEs_IncludesEmptyRegistrations(t *testing.T) {
	b := newTestBuffer(10000, 5000, 1000)
	b.RegisterUE(3)
	b.AddPacket(&Packet{SizeBytes: 10, UEID: 4, TTLMs: 1000}, 0)

	ids := b.RegisteredUEs()
	seen := map[int]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen[3] || !seen[4] {
		t.Errorf("expected UEs 3 and 4 registered, got %v", ids)
	}
}
