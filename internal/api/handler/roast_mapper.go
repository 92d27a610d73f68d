package handler

import (
	"github.com/gradeidea/roast-service/internal/core/ports"
)

// --- Service result → HTTP response ---

func toStartResponse(r *ports.StartRoastResult) startRoastResponse {
	return startRoastResponse{
		JobID:  r.JobID,
		Status: r.Status,
		Links:  roastLinks{Self: "/v1/roasts/" + r.JobID},
	}
}

func toCheckoutResponse(r *ports.StartCheckoutResult) startCheckoutResponse {
	return startCheckoutResponse{
		JobID:       r.JobID,
		SessionID:   r.SessionID,
		CheckoutURL: r.CheckoutURL,
		Links:       roastLinks{Self: "/v1/roasts/" + r.JobID},
	}
}

func toGetResponse(d *ports.RoastDetail) getRoastResponse {
	resp := getRoastResponse{
		JobID:     d.JobID,
		Status:    d.Status,
		Funding:   d.Funding,
		Paid:      d.Paid,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
		Links:     roastLinks{Self: "/v1/roasts/" + d.JobID},
	}
	if d.Result != nil {
		resp.Result = &roastResultResponse{
			Title:     d.Result.Title,
			Zingers:   d.Result.Zingers,
			Insights:  d.Result.Insights,
			Verdict:   d.Result.Verdict,
			RiskScore: d.Result.RiskScore,
		}
	}
	return resp
}
