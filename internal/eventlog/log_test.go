package eventlog

import "testing"

func TestAppendPreservesOrder(t *testing.T) {
	l := New()
	l.Append(KindPaymentReceived, "t1", "screenshot", "0xabc", "eip155:8453")
	l.Append(KindPaymentVerified, "t1", "screenshot", "0xabc", "eip155:8453")
	l.Append(KindPaymentSettled, "t1", "screenshot", "0xabc", "eip155:8453")

	all := l.All()
	if len(all) != 3 {
		t.Fatalf("len(All()) = %d, want 3", len(all))
	}
	if all[0].Kind != KindPaymentReceived || all[2].Kind != KindPaymentSettled {
		t.Fatalf("unexpected order: %+v", all)
	}
}

func TestCountByKind(t *testing.T) {
	l := New()
	l.Append(KindPaymentReceived, "t1", "screenshot", "0xabc", "eip155:8453")
	l.Append(KindPaymentReceived, "t2", "ai-analysis", "0xdef", "eip155:8453")
	l.Append(KindSIWXAccess, "t3", "screenshot", "0xabc", "")

	counts := l.CountByKind()
	if counts[KindPaymentReceived] != 2 {
		t.Fatalf("KindPaymentReceived count = %d, want 2", counts[KindPaymentReceived])
	}
	if counts[KindSIWXAccess] != 1 {
		t.Fatalf("KindSIWXAccess count = %d, want 1", counts[KindSIWXAccess])
	}
}

func TestLoadSnapshotReplacesContents(t *testing.T) {
	l := New()
	l.Append(KindPaymentReceived, "t1", "screenshot", "0xabc", "eip155:8453")

	l.LoadSnapshot([]Event{{Kind: KindPaymentSettled, TaskID: "t9"}})
	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", l.Len())
	}
	if l.All()[0].TaskID != "t9" {
		t.Fatalf("unexpected event after LoadSnapshot: %+v", l.All()[0])
	}
}
