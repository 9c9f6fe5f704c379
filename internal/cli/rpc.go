package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var rpcURL string

var rpcCmd = &cobra.Command{
	Use:   "rpc <method> [params-json]",
	Short: "Send an RPC request to a running server",
	Long: `Send a JSON-RPC request to a running venued server and print the
response. Params, when given, must be a single JSON object.

Examples:
  venued rpc server_info
  venued rpc token_info '{"token_id": 1}'
  venued rpc quote_swap_xlm_to_tokens '{"pool_id": 1, "amount": 10000000}'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRPC,
}

func init() {
	rootCmd.AddCommand(rpcCmd)
	rpcCmd.Flags().StringVar(&rpcURL, "url", "http://localhost:6806/", "server RPC endpoint")
}

func runRPC(cmd *cobra.Command, args []string) error {
	request := map[string]any{"method": args[0]}
	if len(args) == 2 {
		var params json.RawMessage
		if err := json.Unmarshal([]byte(args[1]), &params); err != nil {
			return fmt.Errorf("params must be valid JSON: %w", err)
		}
		request["params"] = []json.RawMessage{params}
	}

	body, err := json.Marshal(request)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(rpcURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, responseBody, "", "  "); err != nil {
		fmt.Println(string(responseBody))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}
