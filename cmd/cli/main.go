package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "marketledger-cli",
		Short: "MarketLedger CLI tool",
		Long:  `A command line interface for interacting with the MarketLedger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the MarketLedger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Retailer commands
	retailerCmd := &cobra.Command{
		Use:   "retailer",
		Short: "Retailer operations",
	}

	balanceCmd := &cobra.Command{
		Use:   "balance <retailer-id>",
		Short: "Show a retailer's available balance",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/retailers/" + args[0] + "/balance")
		},
	}

	unfreezeCmd := &cobra.Command{
		Use:   "unfreeze <retailer-id>",
		Short: "Lift an integrity freeze for a retailer",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/api/v1/retailers/"+args[0]+"/unfreeze", nil)
		},
	}

	retailerCmd.AddCommand(balanceCmd, unfreezeCmd)
	rootCmd.AddCommand(retailerCmd)

	// Ledger commands
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	releaseCmd := &cobra.Command{
		Use:   "release-holds",
		Short: "Release pending entries whose hold window has elapsed",
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/api/v1/ledger/release", map[string]any{})
		},
	}

	ledgerCmd.AddCommand(releaseCmd)
	rootCmd.AddCommand(ledgerCmd)

	// Settlement commands
	settlementCmd := &cobra.Command{
		Use:   "settlement",
		Short: "Settlement operations",
	}

	var (
		settleAmount    string
		settlePayMode   string
		settleReference string
		settleNotes     string
		settleActor     string
	)

	executeCmd := &cobra.Command{
		Use:   "execute <retailer-id>",
		Short: "Execute a payout for a retailer",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/api/v1/settlements", map[string]any{
				"retailer_id":      args[0],
				"amount":           settleAmount,
				"payment_mode":     settlePayMode,
				"reference_number": settleReference,
				"notes":            settleNotes,
				"settled_by":       settleActor,
			})
		},
	}
	executeCmd.Flags().StringVar(&settleAmount, "amount", "", "Payout amount")
	executeCmd.Flags().StringVar(&settlePayMode, "payment-mode", "BANK_TRANSFER", "Payment mode")
	executeCmd.Flags().StringVar(&settleReference, "reference", "", "External payment reference")
	executeCmd.Flags().StringVar(&settleNotes, "notes", "", "Settlement notes")
	executeCmd.Flags().StringVar(&settleActor, "actor", "cli", "Operator recording the settlement")
	executeCmd.MarkFlagRequired("amount")

	detailsCmd := &cobra.Command{
		Use:   "details <settlement-id>",
		Short: "Show a settlement with its allocation trail",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/settlements/" + args[0])
		},
	}

	settlementCmd.AddCommand(executeCmd, detailsCmd)
	rootCmd.AddCommand(settlementCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func getJSON(path string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	printResponse(resp)
}

func postJSON(path string, payload map[string]any) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			fmt.Printf("Error encoding request: %v\n", err)
			os.Exit(1)
		}
		body = bytes.NewReader(data)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", body)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	printResponse(resp)
}

func printResponse(resp *http.Response) {
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Println(pretty.String())
}
