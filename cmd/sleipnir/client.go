package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"sleipnir/internal/common"
	sleipnirnet "sleipnir/internal/net"

	"github.com/spf13/cobra"
)

// reportFixedHeaderLen matches Report's fixed wire layout in internal/net/messages.go.
const reportFixedHeaderLen = 1 + 1 + 8 + 8 + 8 + 8 + 1 + 4

func newClientCmd() *cobra.Command {
	var (
		serverAddr string
		action     string
		symbol     string
		sideStr    string
		typeStr    string
		price      float64
		qtyStr     string
		orderID    uint64
	)

	cmd := &cobra.Command{
		Use:   "client",
		Short: "Connect to a running sleipnir server and place or cancel orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClient(serverAddr, action, symbol, sideStr, typeStr, price, qtyStr, orderID)
		},
	}

	cmd.Flags().StringVar(&serverAddr, "server", "127.0.0.1:9000", "address of the sleipnir server")
	cmd.Flags().StringVar(&action, "action", "place", "action to perform: place|cancel|log")
	cmd.Flags().StringVar(&symbol, "symbol", "AAPL", "symbol")
	cmd.Flags().StringVar(&sideStr, "side", "buy", "order side: buy|sell")
	cmd.Flags().StringVar(&typeStr, "type", "limit", "order type: limit|market")
	cmd.Flags().Float64Var(&price, "price", 100.0, "limit price")
	cmd.Flags().StringVar(&qtyStr, "qty", "10", "quantity, or comma-separated list (e.g. 10,20,50)")
	cmd.Flags().Uint64Var(&orderID, "id", 0, "order id (required for cancel; auto-assigned for place)")

	return cmd
}

func runClient(serverAddr, action, symbol, sideStr, typeStr string, price float64, qtyStr string, orderID uint64) error {
	conn, err := net.Dial("tcp", serverAddr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("Connected to %s\n", serverAddr)

	go readReports(conn)

	side := common.Buy
	if strings.ToLower(sideStr) == "sell" {
		side = common.Sell
	}
	orderType := common.Limit
	if strings.ToLower(typeStr) == "market" {
		orderType = common.Market
	}

	switch strings.ToLower(action) {
	case "place":
		quantities := parseQuantities(qtyStr)
		nextID := orderID
		if nextID == 0 {
			nextID = uint64(time.Now().UnixNano())
		}
		for _, q := range quantities {
			if err := sendPlaceOrder(conn, nextID, symbol, orderType, price, q, side); err != nil {
				fmt.Printf("failed to place order (qty %d): %v\n", q, err)
			} else {
				fmt.Printf("-> sent %s order id=%d %s qty=%d @ %.2f\n", strings.ToUpper(sideStr), nextID, symbol, q, price)
			}
			nextID++
			time.Sleep(5 * time.Millisecond)
		}
	case "cancel":
		if orderID == 0 {
			return fmt.Errorf("--id is required for cancel")
		}
		if err := sendCancelOrder(conn, orderID, symbol); err != nil {
			return fmt.Errorf("send cancel: %w", err)
		}
		fmt.Printf("-> sent cancel request for id=%d\n", orderID)
	case "log":
		if err := sendLog(conn); err != nil {
			return fmt.Errorf("send log: %w", err)
		}
		fmt.Println("-> sent log request")
	default:
		return fmt.Errorf("unknown action: %s", action)
	}

	fmt.Println("listening for reports... (ctrl-c to exit)")
	select {}
}

func parseQuantities(input string) []uint64 {
	parts := strings.Split(input, ",")
	result := make([]uint64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if val, err := strconv.ParseUint(p, 10, 64); err == nil {
			result = append(result, val)
		} else {
			fmt.Printf("warning: invalid quantity %q, skipping\n", p)
		}
	}
	return result
}

func sendPlaceOrder(conn net.Conn, orderID uint64, symbol string, orderType common.OrderType, price float64, qty uint64, side common.Side) error {
	symbolLen := len(symbol)
	totalLen := sleipnirnet.BaseMessageHeaderLen + sleipnirnet.NewOrderMessageHeaderLen + symbolLen
	buf := make([]byte, totalLen)

	binary.BigEndian.PutUint16(buf[0:2], uint16(sleipnirnet.NewOrder))
	binary.BigEndian.PutUint64(buf[2:10], orderID)
	binary.BigEndian.PutUint64(buf[10:18], math.Float64bits(price))
	binary.BigEndian.PutUint64(buf[18:26], qty)
	buf[26] = byte(side)
	buf[27] = byte(orderType)
	buf[28] = byte(symbolLen)
	copy(buf[29:], symbol)

	_, err := conn.Write(buf)
	return err
}

func sendCancelOrder(conn net.Conn, orderID uint64, symbol string) error {
	symbolLen := len(symbol)
	totalLen := sleipnirnet.BaseMessageHeaderLen + sleipnirnet.CancelOrderMessageHeaderLen + symbolLen
	buf := make([]byte, totalLen)

	binary.BigEndian.PutUint16(buf[0:2], uint16(sleipnirnet.CancelOrder))
	binary.BigEndian.PutUint64(buf[2:10], orderID)
	buf[10] = byte(symbolLen)
	copy(buf[11:], symbol)

	_, err := conn.Write(buf)
	return err
}

func sendLog(conn net.Conn) error {
	buf := make([]byte, sleipnirnet.BaseMessageHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(sleipnirnet.LogBook))
	_, err := conn.Write(buf)
	return err
}

// readReports continuously reads and prints Report messages from the server.
func readReports(conn net.Conn) {
	for {
		header := make([]byte, reportFixedHeaderLen)
		if _, err := io.ReadFull(conn, header); err != nil {
			if err != io.EOF {
				fmt.Printf("connection lost: %v\n", err)
			}
			os.Exit(0)
		}

		msgType := sleipnirnet.ReportMessageType(header[0])
		side := common.Side(header[1])
		qty := binary.BigEndian.Uint64(header[10:18])
		price := math.Float64frombits(binary.BigEndian.Uint64(header[18:26]))
		orderID := binary.BigEndian.Uint64(header[26:34])
		symbolLen := int(header[34])
		errStrLen := int(binary.BigEndian.Uint32(header[35:39]))

		varBuf := make([]byte, symbolLen+errStrLen)
		if len(varBuf) > 0 {
			if _, err := io.ReadFull(conn, varBuf); err != nil {
				fmt.Printf("error reading report body: %v\n", err)
				return
			}
		}
		symbol := string(varBuf[:symbolLen])
		errStr := string(varBuf[symbolLen:])

		if msgType == sleipnirnet.ErrorReport {
			fmt.Printf("\n[SERVER ERROR] order=%d %s: %s\n", orderID, symbol, errStr)
			continue
		}

		sideStr := "BUY"
		if side == common.Sell {
			sideStr = "SELL"
		}
		fmt.Printf("\n[EXECUTION] %s %s id=%d qty=%d price=%.2f\n", sideStr, symbol, orderID, qty, price)
	}
}
