// internal/writer/writer.go
package writer

// endpointClient is the exact contract the writer uses.
// Implemented by modbus.EndpointClient.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// New returns the indicator writer for plan. The first successful write
// asserts the full block.
func New(plan Plan, cli endpointClient) StatusWriter {
	return newIndicatorWriter(plan, cli)
}
