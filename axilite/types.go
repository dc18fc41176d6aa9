package axilite

import "fmt"

// Address is a bus address. It is truncated to the address width of the bus
// when driven.
type Address uint64

// Data is a bus data word. It is truncated to the data width of the bus when
// driven.
type Data uint64

// Resp is the response code carried by the B and R channels.
type Resp uint8

// AXI response codes.
const (
	RespOkay   Resp = 0
	RespExOkay Resp = 1
	RespSlvErr Resp = 2
	RespDecErr Resp = 3
)

// RespWidth is the width of the BRESP and RRESP lines.
const RespWidth = 2

// IsOkay returns true if the response reports success.
func (r Resp) IsOkay() bool {
	return r == RespOkay
}

func (r Resp) String() string {
	switch r {
	case RespOkay:
		return "OKAY"
	case RespExOkay:
		return "EXOKAY"
	case RespSlvErr:
		return "SLVERR"
	case RespDecErr:
		return "DECERR"
	default:
		return fmt.Sprintf("Resp(%d)", uint8(r))
	}
}

// Kind tells if a transaction is a write or a read.
type Kind int

// Transaction kinds.
const (
	KindWrite Kind = iota
	KindRead
)

func (k Kind) String() string {
	if k == KindWrite {
		return "write"
	}

	return "read"
}
