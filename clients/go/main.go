// Intercom CLI - Command line client for the intercom expense relay
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/MaivaSoftwares/intercom/clients/go/intercom"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("INTERCOM_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client := intercom.NewClient(baseURL)
	cmd := os.Args[1]

	switch cmd {
	case "health":
		resp, err := client.Health()
		exitOnError(err)
		printJSON(resp)

	case "rooms":
		resp, err := client.ListRooms()
		exitOnError(err)
		for _, room := range resp.Rooms {
			fmt.Printf("  #%s  %d expenses, %s total\n", room.Channel, room.EventCount, formatCents(room.TotalCents))
		}

	case "register":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: intercom register <name>")
			os.Exit(1)
		}
		resp, err := client.Register(os.Args[2])
		exitOnError(err)
		fmt.Printf("Registered as: %s\n", resp.ID)

	case "add":
		// intercom add <room> <payer> <amount> <member,member,...> [note]
		if len(os.Args) < 6 {
			fmt.Fprintln(os.Stderr, "Usage: intercom add <room> <payer> <amount> <member,member,...> [note]")
			os.Exit(1)
		}
		req := intercom.AddExpenseRequest{
			Payer:  os.Args[3],
			Amount: os.Args[4],
			Split:  strings.Split(os.Args[5], ","),
		}
		if len(os.Args) > 6 {
			req.Note = strings.Join(os.Args[6:], " ")
		}
		resp, err := client.AddExpense(os.Args[2], req)
		exitOnError(err)
		if resp.Duplicate {
			fmt.Printf("Already recorded: %s\n", resp.Event.TxID)
		} else {
			fmt.Printf("Recorded: %s (broadcast=%v)\n", resp.Event.TxID, resp.Broadcast)
		}

	case "log":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: intercom log <room>")
			os.Exit(1)
		}
		resp, err := client.GetExpenses(os.Args[2])
		exitOnError(err)
		for _, ev := range resp.Events {
			ts := time.UnixMilli(ev.TS).Format("2006-01-02 15:04")
			fmt.Printf("[%s] %s paid %s for %s", ts, ev.Payer, formatCents(ev.AmountCents), strings.Join(ev.Split, ","))
			if ev.Note != "" {
				fmt.Printf("  (%s)", ev.Note)
			}
			fmt.Println()
		}

	case "summary":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: intercom summary <room>")
			os.Exit(1)
		}
		resp, err := client.GetSummary(os.Args[2])
		exitOnError(err)
		fmt.Printf("#%s: %d expenses, %s total\n", resp.Channel, resp.EventCount, formatCents(resp.TotalCents))
		for _, b := range resp.Balances {
			fmt.Printf("  %-16s %s\n", b.Member, formatCents(b.Cents))
		}
		if len(resp.Settlements) == 0 {
			fmt.Println("all settled")
			return
		}
		fmt.Println("to settle:")
		for _, s := range resp.Settlements {
			fmt.Printf("  %s -> %s %s\n", s.From, s.To, formatCents(s.AmountCents))
		}

	case "find":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: intercom find <query>")
			os.Exit(1)
		}
		resp, err := client.Find(os.Args[2], 20, "")
		exitOnError(err)
		for _, m := range resp.Matches {
			fmt.Printf("[#%s] %s paid %s: %s\n", m.Channel, m.Event.Payer, formatCents(m.Event.AmountCents), m.Event.Note)
		}

	case "who":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: intercom who <peer_id>")
			os.Exit(1)
		}
		resp, err := client.GetPeer(os.Args[2])
		exitOnError(err)
		printJSON(resp)

	case "export":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: intercom export <room>")
			os.Exit(1)
		}
		snap, err := client.GetSnapshot(os.Args[2])
		exitOnError(err)
		printJSON(snap)

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`Intercom CLI - shared expense ledger

Usage: intercom <command> [options]

Commands:
  register <name>                          Register a peer identity
  add <room> <payer> <amount> <members>    Record an expense (members comma-separated)
  log <room>                               Show a room's expense log
  summary <room>                           Show balances and settlement plan
  export <room>                            Export a room snapshot as JSON
  rooms                                    List live rooms
  find <query>                             Search expense notes
  who <peer_id>                            Get a peer profile
  health                                   Check server health

Environment:
  INTERCOM_URL      Server URL (default: http://localhost:8080)
  INTERCOM_CONFIG   Config directory (default: ~/.intercom)`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
