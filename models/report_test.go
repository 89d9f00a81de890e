package models

import (
	"testing"
)

func TestReportBuilderCounts(t *testing.T) {
	base := BatchReport{BatchID: "b-1"}

	b := NewReportBuilder(base)
	b.Add(DeliveryOutcome{RecipientID: "A", Endpoint: "https://push/a", Status: StatusDelivered, StatusCode: 201})
	b.Add(DeliveryOutcome{RecipientID: "B", Endpoint: "https://push/b", Status: StatusGone, StatusCode: 410, ErrorKind: "delivery", Error: "abonnement expiré"})
	b.Add(DeliveryOutcome{RecipientID: "C", Endpoint: "https://push/c", Status: StatusFailed, ErrorKind: "crypto", Error: "clé invalide"})
	r := b.Report()

	if r.Sent != 1 || r.Failed != 2 || r.Gone != 1 || r.Total != 3 {
		t.Errorf("sent=%d failed=%d gone=%d total=%d, attendu 1/2/1/3", r.Sent, r.Failed, r.Gone, r.Total)
	}
	if len(r.Errors) != 2 || r.Errors[0].RecipientID != "B" || r.Errors[1].Kind != "crypto" {
		t.Errorf("erreurs inattendues: %+v", r.Errors)
	}

	gone := r.GoneEndpoints()
	if len(gone) != 1 || gone[0] != "https://push/b" {
		t.Errorf("GoneEndpoints() = %v", gone)
	}

	// Le rapport d'origine n'est pas modifié
	if base.Total != 0 || len(base.Outcomes) != 0 {
		t.Errorf("le rapport initial a été modifié: %+v", base)
	}

	// B (expiré) n'entre pas dans le taux d'échec
	if ratio := r.FailureRatio(); ratio < 0.33 || ratio > 0.34 {
		t.Errorf("FailureRatio() = %v", ratio)
	}
	if (BatchReport{}).FailureRatio() != 0 {
		t.Error("FailureRatio() d'un rapport vide devrait valoir 0")
	}
}

func TestFailureRatioIgnoresExpiredSubscriptions(t *testing.T) {
	b := NewReportBuilder(BatchReport{})
	for _, endpoint := range []string{"https://push/a", "https://push/b"} {
		b.Add(DeliveryOutcome{Endpoint: endpoint, Status: StatusGone, StatusCode: 410})
	}

	r := b.Report()
	if r.Failed != 2 || r.Gone != 2 {
		t.Errorf("failed=%d gone=%d, attendu 2/2", r.Failed, r.Gone)
	}
	if ratio := r.FailureRatio(); ratio != 0 {
		t.Errorf("FailureRatio() = %v, attendu 0", ratio)
	}
}

func TestReportBuilder(t *testing.T) {
	b := NewReportBuilder(BatchReport{BatchID: "b-1"})
	for i := 0; i < 1000; i++ {
		b.Add(DeliveryOutcome{RecipientID: "A", Status: StatusDelivered})
	}
	b.Add(DeliveryOutcome{RecipientID: "B", Status: StatusFailed, ErrorKind: "delivery", Error: "HTTP 500"})

	first := b.Report()
	if first.BatchID != "b-1" || first.Total != 1001 || first.Sent != 1000 || first.Failed != 1 {
		t.Errorf("rapport inattendu: total=%d sent=%d failed=%d", first.Total, first.Sent, first.Failed)
	}
	if len(first.Outcomes) != 1001 || len(first.Errors) != 1 {
		t.Errorf("outcomes=%d errors=%d", len(first.Outcomes), len(first.Errors))
	}

	// Un rapport figé ne voit pas les ajouts suivants
	b.Add(DeliveryOutcome{RecipientID: "C", Status: StatusDelivered})
	first.Outcomes[0].RecipientID = "modifié"
	second := b.Report()
	if first.Total != 1001 || second.Total != 1002 {
		t.Errorf("total figé=%d, courant=%d", first.Total, second.Total)
	}
	if second.Outcomes[0].RecipientID != "A" {
		t.Error("le rapport figé partage ses résultats avec le builder")
	}
}
