package axilite

import (
	"fmt"
	"sort"
)

// Short names of the AXI4-Lite signals.
const (
	NameAWValid = "awvalid"
	NameAWReady = "awready"
	NameAWAddr  = "awaddr"
	NameWValid  = "wvalid"
	NameWReady  = "wready"
	NameWData   = "wdata"
	NameBValid  = "bvalid"
	NameBReady  = "bready"
	NameBResp   = "bresp"
	NameARValid = "arvalid"
	NameARReady = "arready"
	NameARAddr  = "araddr"
	NameRValid  = "rvalid"
	NameRReady  = "rready"
	NameRData   = "rdata"
	NameRResp   = "rresp"
)

// SignalNames lists the signals of an AXI4-Lite interface in channel order.
var SignalNames = []string{
	NameAWValid, NameAWReady, NameAWAddr,
	NameWValid, NameWReady, NameWData,
	NameBValid, NameBReady, NameBResp,
	NameARValid, NameARReady, NameARAddr,
	NameRValid, NameRReady, NameRData, NameRResp,
}

// BusConfig fixes the widths of the address and data lines.
type BusConfig struct {
	AddrWidth int
	DataWidth int
}

// DefaultBusConfig returns a 32-bit address, 32-bit data configuration.
func DefaultBusConfig() BusConfig {
	return BusConfig{AddrWidth: 32, DataWidth: 32}
}

func (c BusConfig) mustBeValid() {
	if c.AddrWidth < 1 || c.AddrWidth > 64 {
		panic(fmt.Sprintf("address width %d out of range [1, 64]", c.AddrWidth))
	}

	if c.DataWidth < 1 || c.DataWidth > 64 {
		panic(fmt.Sprintf("data width %d out of range [1, 64]", c.DataWidth))
	}
}

func (c BusConfig) widthOf(name string) int {
	switch name {
	case NameAWAddr, NameARAddr:
		return c.AddrWidth
	case NameWData, NameRData:
		return c.DataWidth
	case NameBResp, NameRResp:
		return RespWidth
	default:
		return 1
	}
}

// SignalMaker creates a signal with the given full name and width.
type SignalMaker func(name string, width int) Signal

// A Bus is the full AXI4-Lite signal set, grouped into its five channels.
type Bus struct {
	name    string
	config  BusConfig
	signals map[string]Signal

	AW *Channel
	W  *Channel
	B  *Channel
	AR *Channel
	R  *Channel
}

// Name returns the name of the bus. It prefixes every signal name.
func (b *Bus) Name() string {
	return b.name
}

// Config returns the widths of the bus.
func (b *Bus) Config() BusConfig {
	return b.config
}

// Signal returns a signal by its short name, such as "awvalid".
func (b *Bus) Signal(name string) Signal {
	s, found := b.signals[name]
	if !found {
		available := make([]string, 0, len(b.signals))
		for n := range b.signals {
			available = append(available, n)
		}
		sort.Strings(available)

		panic(fmt.Sprintf("signal %s not found on bus %s, available: %v",
			name, b.name, available))
	}

	return s
}

// Channels returns the five channels in AW, W, B, AR, R order.
func (b *Bus) Channels() []*Channel {
	return []*Channel{b.AW, b.W, b.B, b.AR, b.R}
}

// FullSignalName returns the name a signal of a bus is created with.
func FullSignalName(busName, short string) string {
	if busName == "" {
		return short
	}

	return busName + "_" + short
}

// BusBuilder builds buses.
type BusBuilder struct {
	config BusConfig
	maker  SignalMaker
}

// MakeBusBuilder returns a BusBuilder with the default widths.
func MakeBusBuilder() BusBuilder {
	return BusBuilder{config: DefaultBusConfig()}
}

// WithConfig sets both widths.
func (b BusBuilder) WithConfig(config BusConfig) BusBuilder {
	b.config = config
	return b
}

// WithAddrWidth sets the width of AWADDR and ARADDR.
func (b BusBuilder) WithAddrWidth(width int) BusBuilder {
	b.config.AddrWidth = width
	return b
}

// WithDataWidth sets the width of WDATA and RDATA.
func (b BusBuilder) WithDataWidth(width int) BusBuilder {
	b.config.DataWidth = width
	return b
}

// WithSignalMaker sets how the signals of the bus are created.
func (b BusBuilder) WithSignalMaker(maker SignalMaker) BusBuilder {
	b.maker = maker
	return b
}

// Build creates the signals of a bus and groups them into channels.
func (b BusBuilder) Build(name string) *Bus {
	b.config.mustBeValid()

	if b.maker == nil {
		panic("signal maker is not set")
	}

	bus := &Bus{
		name:    name,
		config:  b.config,
		signals: make(map[string]Signal, len(SignalNames)),
	}

	for _, short := range SignalNames {
		bus.signals[short] = b.maker(
			FullSignalName(name, short), b.config.widthOf(short))
	}

	bus.AW = bus.makeChannel("AW", NameAWValid, NameAWReady, NameAWAddr)
	bus.W = bus.makeChannel("W", NameWValid, NameWReady, NameWData)
	bus.B = bus.makeChannel("B", NameBValid, NameBReady, NameBResp)
	bus.AR = bus.makeChannel("AR", NameARValid, NameARReady, NameARAddr)
	bus.R = bus.makeChannel("R", NameRValid, NameRReady, NameRData, NameRResp)

	return bus
}

func (b *Bus) makeChannel(
	name, valid, ready string,
	payload ...string,
) *Channel {
	c := &Channel{
		Name:  name,
		Valid: b.signals[valid],
		Ready: b.signals[ready],
	}

	for _, p := range payload {
		c.Payload = append(c.Payload, b.signals[p])
	}

	return c
}
