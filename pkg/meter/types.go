package meter

import "time"

type Data struct {
	Id        string    `json:"id"`
	Model     string    `json:"model"`
	Time      time.Time `json:"time"`
	Current_W float64   `json:"w,omitempty"`
	Total_WH  float64   `json:"wh,omitempty"`
	L1_A      float64   `json:"l1_a,omitempty"`
	L2_A      float64   `json:"l2_a,omitempty"`
	L3_A      float64   `json:"l3_a,omitempty"`
	L1_V      float64   `json:"l1_v,omitempty"`
	L2_V      float64   `json:"l2_v,omitempty"`
	L3_V      float64   `json:"l3_v,omitempty"`
}

// PhaseAmps returns the per-phase currents keyed by phase name.
func (d *Data) PhaseAmps() map[string]float64 {
	return map[string]float64{
		"l1": d.L1_A,
		"l2": d.L2_A,
		"l3": d.L3_A,
	}
}

// Source reads one meter. Implementations exist for modbus TCP and M-Bus.
type Source interface {
	ReadValues(model, id string) (*Data, error)
}
