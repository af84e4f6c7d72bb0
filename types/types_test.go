package types

import (
	"encoding/json"
	"testing"
)

func TestLEDConfig_Decode(t *testing.T) {
	raw := `{
		"device": "rp2",
		"uart": {"id": "uart0", "baud": 9600, "tx": 0, "rx": 1, "parity": "even"},
		"led_pin": 25,
		"initial": true
	}`
	var c LEDConfig
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Device != "rp2" || c.UART.ID != "uart0" || c.UART.Baud != 9600 || c.UART.RX != 1 {
		t.Errorf("unexpected uart config: %+v", c)
	}
	if c.UART.Parity != ParityEven {
		t.Errorf("parity = %v, want even", c.UART.Parity)
	}
	if c.LEDPin != 25 || !c.Initial || c.ActiveLow {
		t.Errorf("unexpected led config: %+v", c)
	}
}

func TestParity_RejectsUnknown(t *testing.T) {
	var p Parity
	if err := json.Unmarshal([]byte(`"mark"`), &p); err == nil {
		t.Errorf("expected error for unknown parity")
	}
}
