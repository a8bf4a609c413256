package meter

import (
	"fmt"
	"time"

	"github.com/geNAZt/zoneheat/pkg/modbusclient"
	"github.com/goburrow/modbus"
)

// Modbus reads meters over modbus TCP.
type Modbus struct {
	client modbusclient.Client
}

func NewModbus(address string, slaveID byte) *Modbus {
	handler := modbus.NewTCPClientHandler(address)
	handler.SlaveId = slaveID
	handler.Timeout = 5 * time.Second
	return &Modbus{
		client: modbusclient.New(modbus.NewClient(handler), handler.Close),
	}
}

func (m *Modbus) ReadValues(model, id string) (*Data, error) {
	data := &Data{
		Id:    id,
		Model: model,
		Time:  time.Now(),
	}

	switch model {
	case "garo-GNM3D":
		var err error
		data.L1_V, err = m.scale10(0x0000)
		if err != nil {
			return nil, err
		}
		data.L2_V, err = m.scale10(0x0002)
		if err != nil {
			return nil, err
		}
		data.L3_V, err = m.scale10(0x0004)
		if err != nil {
			return nil, err
		}
		data.L1_A, err = m.scale1000(0x000c)
		if err != nil {
			return nil, err
		}
		data.L2_A, err = m.scale1000(0x000e)
		if err != nil {
			return nil, err
		}
		data.L3_A, err = m.scale1000(0x0010)
		if err != nil {
			return nil, err
		}
		data.Current_W, err = m.scale10(0x0028)
		if err != nil {
			return nil, err
		}
		wh, err := m.client.ReadHoldingRegister32(0x0034)
		if err != nil {
			return nil, err
		}
		data.Total_WH = float64(wh) * 100
	default:
		return nil, fmt.Errorf("unknown modbus meter model %q", model)
	}

	return data, nil
}

func (m *Modbus) scale10(address uint16) (float64, error) {
	i, err := m.client.ReadHoldingRegister32(address)
	return float64(i) / 10.0, err
}

func (m *Modbus) scale1000(address uint16) (float64, error) {
	i, err := m.client.ReadHoldingRegister32(address)
	return float64(i) / 1000.0, err
}
