// internal/writer/builder.go
package writer

import (
	"errors"
	"time"

	cfg "github.com/tamzrod/laempli/internal/config"
	wmodbus "github.com/tamzrod/laempli/internal/writer/modbus"
)

// BuildPlan converts the indicator config into a write plan.
// Assumes config has already passed validation.
func BuildPlan(ind cfg.IndicatorConfig, name string) (Plan, error) {
	if ind.Endpoint == "" {
		return Plan{}, errors.New("writer: indicator.endpoint required")
	}

	return Plan{
		Endpoint: ind.Endpoint,
		UnitID:   ind.UnitID,
		BaseSlot: ind.BaseSlot,
		Name:     name,
	}, nil
}

// BuildEndpointClient creates the TCP client for the indicator endpoint.
func BuildEndpointClient(ind cfg.IndicatorConfig) (*wmodbus.EndpointClient, func() error, error) {
	c, err := wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: ind.Endpoint,
		Timeout:  time.Duration(ind.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}
