package net

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"sleipnir/internal/common"
)

var (
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrMessageTooShort    = errors.New("message too short for specified symbol/username length")
)

type MessageType int

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
	LogBook
)

type ReportMessageType int

const (
	ExecutionReport ReportMessageType = iota
	ErrorReport
)

type Message interface {
	GetType() MessageType
}

// Message format constants. Field widths mirror the teacher's wire layout —
// a 2-byte type header, prices as float64 bits — so a client speaking the
// teacher's protocol only needs its AssetType/Ticker framing swapped for a
// Symbol string and its Side/OrderType enums aligned with common.Side/common.OrderType.
const (
	BaseMessageHeaderLen        = 2
	NewOrderMessageHeaderLen    = 2 + 8 + 8 + 8 + 1 + 1 + 1
	CancelOrderMessageHeaderLen = 2 + 8 + 1
)

// BaseMessage is the generic message header every wire message starts with.
type BaseMessage struct {
	TypeOf MessageType // 2 bytes
}

func (m BaseMessage) GetType() MessageType {
	return m.TypeOf
}

func parseMessage(msg []byte) (Message, error) {
	if len(msg) < BaseMessageHeaderLen {
		return BaseMessage{}, errors.New("message too short to contain header")
	}

	typeOf := MessageType(binary.BigEndian.Uint16(msg[0:2]))
	msg = msg[2:]
	switch typeOf {
	case NewOrder:
		return parseNewOrder(msg)
	case CancelOrder:
		return parseCancelOrder(msg)
	case LogBook:
		return BaseMessage{TypeOf: LogBook}, nil
	default:
		return BaseMessage{}, ErrInvalidMessageType
	}
}

// NewOrderMessage carries a single order onto the wire. Price travels as a
// float64 for backward-compatible framing with the teacher's client; the
// server converts it to the core's integer tick Price via the target
// book's TickSize before calling engine.PlaceOrder.
type NewOrderMessage struct {
	BaseMessage
	OrderID   uint64  // 8 bytes
	Price     float64 // 8 bytes
	Quantity  uint64  // 8 bytes
	Side      byte    // 1 byte — common.Side
	Type      byte    // 1 byte — common.OrderType
	SymbolLen uint8   // 1 byte
	Symbol    string  // n bytes
}

// Order converts the wire message to a common.Order, quantizing Price to
// the nearest tick of size tickSize.
func (o *NewOrderMessage) Order(tickSize uint64) common.Order {
	price := o.Price
	if tickSize == 0 {
		tickSize = 1
	}
	ticks := uint64(math.Round(price / float64(tickSize)))
	return common.Order{
		ID:       o.OrderID,
		Price:    ticks * tickSize,
		Quantity: o.Quantity,
		Side:     common.Side(o.Side),
		Type:     common.OrderType(o.Type),
	}
}

func parseNewOrder(msg []byte) (NewOrderMessage, error) {
	m := NewOrderMessage{BaseMessage: BaseMessage{TypeOf: NewOrder}}

	if len(msg) < NewOrderMessageHeaderLen {
		return NewOrderMessage{}, ErrMessageTooShort
	}

	m.OrderID = binary.BigEndian.Uint64(msg[0:8])
	m.Price = math.Float64frombits(binary.BigEndian.Uint64(msg[8:16]))
	m.Quantity = binary.BigEndian.Uint64(msg[16:24])
	m.Side = msg[24]
	m.Type = msg[25]
	m.SymbolLen = uint8(msg[26])

	expectedTotalLen := NewOrderMessageHeaderLen + int(m.SymbolLen)
	if len(msg) < expectedTotalLen {
		return NewOrderMessage{}, ErrMessageTooShort
	}
	m.Symbol = string(msg[27 : 27+m.SymbolLen])

	return m, nil
}

// CancelOrderMessage identifies a resting order by id and symbol.
type CancelOrderMessage struct {
	BaseMessage
	OrderID   uint64 // 8 bytes
	SymbolLen uint8  // 1 byte
	Symbol    string // n bytes
}

func parseCancelOrder(msg []byte) (CancelOrderMessage, error) {
	m := CancelOrderMessage{BaseMessage: BaseMessage{TypeOf: CancelOrder}}

	if len(msg) < CancelOrderMessageHeaderLen {
		return CancelOrderMessage{}, ErrMessageTooShort
	}
	m.OrderID = binary.BigEndian.Uint64(msg[0:8])
	m.SymbolLen = uint8(msg[8])

	expectedTotalLen := CancelOrderMessageHeaderLen + int(m.SymbolLen)
	if len(msg) < expectedTotalLen {
		return CancelOrderMessage{}, ErrMessageTooShort
	}
	m.Symbol = string(msg[9 : 9+m.SymbolLen])

	return m, nil
}

// Report is the wire format for an execution or error notification pushed
// back to a client session.
type Report struct {
	MessageType ReportMessageType // 1 byte
	Side        common.Side       // 1 byte
	Timestamp   uint64            // 8 bytes
	Quantity    uint64            // 8 bytes
	Price       float64           // 8 bytes
	OrderID     uint64            // 8 bytes
	SymbolLen   uint8             // 1 byte
	ErrStrLen   uint32            // 4 bytes
	Symbol      string            // n bytes
	Err         string            // n bytes
}

const reportFixedHeaderLen = 1 + 1 + 8 + 8 + 8 + 8 + 1 + 4

// Serialize converts the report to its wire representation.
func (r *Report) Serialize() ([]byte, error) {
	totalSize := reportFixedHeaderLen + len(r.Symbol) + len(r.Err)

	buf := make([]byte, totalSize)
	buf[0] = byte(r.MessageType)
	buf[1] = byte(r.Side)
	binary.BigEndian.PutUint64(buf[2:10], r.Timestamp)
	binary.BigEndian.PutUint64(buf[10:18], r.Quantity)
	binary.BigEndian.PutUint64(buf[18:26], math.Float64bits(r.Price))
	binary.BigEndian.PutUint64(buf[26:34], r.OrderID)
	buf[34] = byte(r.SymbolLen)
	binary.BigEndian.PutUint32(buf[35:39], r.ErrStrLen)

	offset := reportFixedHeaderLen
	copy(buf[offset:], r.Symbol)
	offset += int(r.SymbolLen)
	copy(buf[offset:], r.Err)

	return buf, nil
}

// generateWireTradeReport builds the wire Report for one Execution produced
// by a book.Book. The execution's price is sent as float64(exec.Price);
// tickSize does not enter the conversion.
func generateWireTradeReport(symbol string, tickSize uint64, exec common.Execution) ([]byte, error) {
	if tickSize == 0 {
		tickSize = 1
	}
	report := Report{
		MessageType: ExecutionReport,
		Side:        exec.Side,
		Timestamp:   exec.Timestamp,
		Quantity:    exec.Quantity,
		Price:       float64(exec.Price),
		OrderID:     exec.OrderID,
		SymbolLen:   uint8(len(symbol)),
		Symbol:      symbol,
	}
	return report.Serialize()
}

func generateWireErrorReport(symbol string, orderID uint64, now uint64, err error) ([]byte, error) {
	errStr := fmt.Sprintf("%v", err)
	report := Report{
		MessageType: ErrorReport,
		Timestamp:   now,
		OrderID:     orderID,
		SymbolLen:   uint8(len(symbol)),
		ErrStrLen:   uint32(len(errStr)),
		Symbol:      symbol,
		Err:         errStr,
	}
	return report.Serialize()
}
