package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/huangminghuang/chainwait/chain"
	"github.com/huangminghuang/chainwait/httpclient"
	"github.com/huangminghuang/chainwait/server"
	"github.com/huangminghuang/chainwait/tracker"
)

const usage = `The Chainwait wait client submits a transaction to a node and holds a
wait_transaction request open until the transaction reaches the requested condition.`

const submitTimeout = 5 * time.Second

func main() {
	var (
		nodeURL   string
		condition string
		timeout   uint64
		trxID     string
		payload   string
		watch     bool
	)

	app := &cli.App{
		Name:  "waitclient",
		Usage: usage,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "url",
				Value:       "http://localhost:8080",
				Usage:       "Base `URL` of the chainwait node",
				Destination: &nodeURL,
			},
			&cli.StringFlag{
				Name:        "condition",
				Value:       "accepted",
				Usage:       "Wait condition, accepted or finalized",
				Destination: &condition,
			},
			&cli.Uint64Flag{
				Name:        "timeout",
				Value:       180,
				Usage:       "Wait expiration in `SECONDS`",
				Destination: &timeout,
			},
			&cli.StringFlag{
				Name:        "id",
				Usage:       "Wait on an already submitted transaction `ID` instead of submitting",
				Destination: &trxID,
			},
			&cli.StringFlag{
				Name:        "payload",
				Value:       "chainwait test transaction",
				Usage:       "Payload of the submitted transaction",
				Destination: &payload,
			},
			&cli.BoolFlag{
				Name:        "watch",
				Usage:       "Stream the node's tracked transaction feed instead of waiting",
				Destination: &watch,
			},
		},
		Action: func(_ *cli.Context) error {
			if watch {
				return watchFeed(nodeURL)
			}
			if trxID == "" {
				id, err := submit(nodeURL, payload)
				if err != nil {
					return err
				}
				trxID = id
				pterm.Info.Printfln("submitted transaction [ %s ]", trxID)
			}
			return wait(nodeURL, trxID, condition, uint32(timeout))
		},
	}

	if err := app.Run(os.Args); err != nil {
		pterm.Error.Println(err.Error())
	}
}

func submit(nodeURL, payload string) (string, error) {
	body := server.PushTransactionRequest{
		Transaction: chain.Transaction{Payload: []byte(payload)},
	}
	var result chain.SubmitResult
	if err := httpclient.MakePost(submitTimeout, nodeURL+server.PushTransactionURL, body, &result); err != nil {
		return "", err
	}
	return result.TransactionID.String(), nil
}

func wait(nodeURL, trxID, condition string, timeout uint32) error {
	req := server.WaitTransactionRequest{
		TransactionID: trxID,
		Condition:     condition,
		Timeout:       timeout,
	}

	// the wait request is held open until the condition is met or the wait
	// expires, so the client side timeout covers the full window
	waitTimeout := time.Duration(timeout+60) * time.Second
	status, raw, err := httpclient.MakePostStatus(waitTimeout, nodeURL+server.WaitTransactionURL, req)
	if err != nil {
		return err
	}

	var pretty map[string]any
	if err := json.Unmarshal(raw, &pretty); err != nil {
		return err
	}

	switch status {
	case 201, 202:
		pterm.Success.Printfln("transaction [ %s ] reached %s: %v", trxID, condition, pretty)
		return nil
	default:
		pterm.Warning.Printfln("wait on [ %s ] replied %d: %v", trxID, status, pretty)
		return fmt.Errorf("wait finished with status %d", status)
	}
}

func watchFeed(nodeURL string) error {
	wsURL := strings.Replace(nodeURL, "http", "ws", 1) + server.WsURL

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	pterm.Info.Printfln("watching tracked transactions on %s", wsURL)
	for {
		var ev tracker.Event
		if err := conn.ReadJSON(&ev); err != nil {
			return err
		}
		pterm.Info.Printfln("transaction [ %s ] %s in block %d", ev.TransactionID, ev.Status, ev.BlockNum)
	}
}
