package command

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/supplier-portal/internal/core/domain"
	"github.com/yndnr/supplier-portal/internal/core/service"
)

// CallCommand returns the call command, which sends any operation with a
// raw JSON payload.
func CallCommand() *cli.Command {
	return &cli.Command{
		Name:      "call",
		Usage:     "Call an endpoint operation with a JSON payload",
		ArgsUsage: "OPERATION [PAYLOAD_JSON | -]",
		Description: "Sends OPERATION with the current session token attached, if any.\n" +
			"PAYLOAD_JSON is passed through as-is; \"-\" reads it from stdin.",
		Action: call,
	}
}

func call(c *cli.Context) error {
	rt := runtimeFrom(c)

	op := c.Args().Get(0)
	if op == "" {
		return domain.ErrInvalidArgument.WithDetails("operation is required")
	}
	payload, err := readPayload(rt, c.Args().Get(1))
	if err != nil {
		return err
	}

	client, err := rt.Client(c.Context)
	if err != nil {
		return err
	}

	var resp *service.Response
	err = rt.spin(fmt.Sprintf("Calling %s...", op), func() error {
		var err error
		resp, err = client.Call(c.Context, op, payload)
		return err
	})
	if err != nil {
		return err
	}

	if len(resp.Data) == 0 {
		fmt.Fprintln(rt.stdout, resp.Message)
		return nil
	}
	return rt.render(resp.Data)
}

func readPayload(rt *runtime, arg string) (json.RawMessage, error) {
	var raw []byte
	switch arg {
	case "":
		return nil, nil
	case "-":
		b, err := io.ReadAll(rt.stdin)
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		raw = b
	default:
		raw = []byte(arg)
	}
	if !json.Valid(raw) {
		return nil, domain.ErrInvalidArgument.WithDetails("payload is not valid JSON")
	}
	return raw, nil
}
