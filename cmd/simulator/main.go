package main

import (
	"flag"
	"fmt"
	"os"
	"time"
)

const maxPlayers = 6

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "full":
		fullCmd(apiURL, args)
	case "populate":
		populateCmd(apiURL, args)
	case "lobbies":
		lobbiesCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Session Simulator - Development tool for exercising multiplayer sessions

USAGE:
  simulator <command> [options]

COMMANDS:
  full      Register players, create a cart and lobby, start a game, signal and save a result
  populate  Add fake ready players to an existing lobby
  lobbies   List waiting lobbies
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:8080)

EXAMPLES:
  # Run a complete 4-player session
  simulator full --players=4

  # Leave the lobby waiting with one open seat for you to join
  simulator full --players=3 --max=4 --stop-at-lobby

  # Add 2 ready players to an existing lobby
  simulator populate --lobby=<id> --count=2`)
}

func fail(step string, err error) {
	fmt.Printf("FAILED\n  %s: %v\n", step, err)
	os.Exit(1)
}

func fullCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("full", flag.ExitOnError)
	players := fs.Int("players", 4, "Number of fake players including the host")
	capacity := fs.Int("max", 0, "Lobby capacity (defaults to --players)")
	stopAtLobby := fs.Bool("stop-at-lobby", false, "Stop once every fake player is ready")
	fs.Parse(args)

	if *capacity == 0 {
		*capacity = *players
	}
	if *players < 1 || *players > *capacity || *capacity > maxPlayers {
		fmt.Printf("Error: need 1 <= --players <= --max <= %d\n", maxPlayers)
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)

	fmt.Println("=== Session Simulator: Full Flow ===")
	fmt.Println()

	fmt.Print("Creating host, cart and lobby... ")
	host, hostToken, err := client.RegisterUser("Host")
	if err != nil {
		fail("register host", err)
	}
	cart, err := client.CreateCart(hostToken, "Simulator Cart", maxPlayers)
	if err != nil {
		fail("create cart", err)
	}
	lobby, err := client.CreateLobby(hostToken, cart.ID, host.Username+"'s lobby", *capacity)
	if err != nil {
		fail("create lobby", err)
	}
	fmt.Printf("OK\n  Cart:  %s\n  Lobby: %s\n", cart.ID, lobby.ID)

	tokens := []string{hostToken}
	fmt.Println()
	fmt.Printf("Adding %d players to lobby:\n", *players-1)
	for i := 1; i < *players; i++ {
		user, token, err := client.RegisterUser(fmt.Sprintf("Player%d", i))
		if err != nil {
			fail("register player", err)
		}
		if err := client.JoinLobby(token, lobby.ID); err != nil {
			fail("join lobby", err)
		}
		tokens = append(tokens, token)
		fmt.Printf("  [%d/%d] %s joined\n", i+1, *players, user.Username)
	}

	fmt.Print("Setting all players ready... ")
	for _, token := range tokens {
		if err := client.SetReady(token, lobby.ID, true); err != nil {
			fail("set ready", err)
		}
	}
	fmt.Println("OK")

	if *stopAtLobby {
		fmt.Println()
		fmt.Println("=========================================")
		fmt.Printf("  LOBBY WAITING (%d/%d seats taken)\n", *players, *capacity)
		fmt.Println("=========================================")
		fmt.Printf("  Lobby ID: %s\n", lobby.ID)
		fmt.Println()
		return
	}

	fmt.Print("Starting game... ")
	start, err := client.StartGame(hostToken, lobby.ID)
	if err != nil {
		fail("start game", err)
	}
	gameID := start.GameInstanceID
	fmt.Printf("OK (game %s)\n", gameID)

	began := time.Now()
	if len(start.Game.Players) > 1 {
		fmt.Print("Exchanging offers, answers and candidates... ")
		if err := exchangeSignals(client, tokens, start.Game); err != nil {
			fail("signaling", err)
		}
		fmt.Println("OK")
	}

	if err := client.ReportRunning(hostToken, gameID); err != nil {
		fail("report running", err)
	}

	fmt.Print("Saving match result... ")
	results := make([]ResultPlayer, 0, len(start.Game.Players))
	for i, p := range start.Game.Players {
		results = append(results, ResultPlayer{
			PlayerID:  p.PlayerID,
			Score:     int64(1000 - i*100),
			Placement: i + 1,
		})
	}
	result, err := client.SaveResult(hostToken, gameID, cart.ID, time.Since(began).Milliseconds()+60000, results)
	if err != nil {
		fail("save result", err)
	}
	fmt.Printf("OK (result %s)\n", result.ID)

	entries, err := client.Leaderboard(hostToken, cart.ID)
	if err != nil {
		fail("leaderboard", err)
	}
	stats, err := client.Stats()
	if err != nil {
		fail("stats", err)
	}

	fmt.Println()
	fmt.Println("=========================================")
	fmt.Println("  SESSION COMPLETE")
	fmt.Println("=========================================")
	for i, e := range entries {
		fmt.Printf("  %d. %-20s %6d\n", i+1, e.Username, e.Score)
	}
	fmt.Println()
	fmt.Printf("  Community: %d lobbies, %d matches\n", stats.LobbiesCreated, stats.MatchesPlayed)
	fmt.Println()
}

// exchangeSignals runs one offer/answer round between the host and every
// peer, each peer trickling a single candidate back.
func exchangeSignals(client *APIClient, tokens []string, game Game) error {
	// lobby join order matches player ids
	hostToken := tokens[0]
	for _, p := range game.Players {
		if p.IsHost {
			continue
		}
		sdp := map[string]string{"type": "offer", "sdp": fmt.Sprintf("v=0 simulated offer for %d", p.PlayerID)}
		if err := client.SendSignal(hostToken, game.ID, 1, p.PlayerID, "offer", sdp); err != nil {
			return err
		}
	}

	for _, p := range game.Players {
		if p.IsHost {
			continue
		}
		token := tokens[p.PlayerID-1]
		signals, err := client.GetSignals(token, game.ID, p.PlayerID)
		if err != nil {
			return err
		}
		if len(signals) != 1 || signals[0].SignalType != "offer" {
			return fmt.Errorf("player %d expected one offer, got %d signals", p.PlayerID, len(signals))
		}
		answer := map[string]string{"type": "answer", "sdp": fmt.Sprintf("v=0 simulated answer from %d", p.PlayerID)}
		if err := client.SendSignal(token, game.ID, p.PlayerID, 1, "answer", answer); err != nil {
			return err
		}
		candidate := map[string]interface{}{"candidate": "candidate:1 1 udp 2122260223 10.0.0.1 54400 typ host", "sdpMLineIndex": 0}
		if err := client.SendSignal(token, game.ID, p.PlayerID, 1, "ice-candidate", candidate); err != nil {
			return err
		}
	}

	inbox, err := client.GetSignals(hostToken, game.ID, 1)
	if err != nil {
		return err
	}
	if want := 2 * (len(game.Players) - 1); len(inbox) != want {
		return fmt.Errorf("host expected %d signals, got %d", want, len(inbox))
	}
	return nil
}

func populateCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("populate", flag.ExitOnError)
	lobbyID := fs.String("lobby", "", "Lobby ID (required)")
	count := fs.Int("count", 1, "Number of users to add")
	fs.Parse(args)

	if *lobbyID == "" {
		fmt.Println("Error: --lobby is required")
		fmt.Println("\nUsage: simulator populate --lobby=<id> [--count=1]")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)

	fmt.Printf("Adding %d players to lobby %s...\n\n", *count, *lobbyID)

	for i := 0; i < *count; i++ {
		user, token, err := client.RegisterUser(fmt.Sprintf("Player%d", i+1))
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED to create user: %v\n", i+1, *count, err)
			continue
		}
		if err := client.JoinLobby(token, *lobbyID); err != nil {
			fmt.Printf("  [%d/%d] FAILED to join: %v\n", i+1, *count, err)
			continue
		}
		if err := client.SetReady(token, *lobbyID, true); err != nil {
			fmt.Printf("  [%d/%d] FAILED to ready: %v\n", i+1, *count, err)
			continue
		}
		fmt.Printf("  [%d/%d] %s joined and is ready\n", i+1, *count, user.Username)
	}

	fmt.Println()
	fmt.Println("Done!")
}

func lobbiesCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("lobbies", flag.ExitOnError)
	pages := fs.Int("pages", 1, "Number of pages to fetch")
	fs.Parse(args)

	client := NewAPIClient(apiURL)
	_, token, err := client.RegisterUser("Browser")
	if err != nil {
		fmt.Printf("Failed to register: %v\n", err)
		os.Exit(1)
	}

	pageToken := ""
	for i := 0; i < *pages; i++ {
		page, err := client.ListLobbies(token, pageToken)
		if err != nil {
			fmt.Printf("Failed to list lobbies: %v\n", err)
			os.Exit(1)
		}
		for _, l := range page.Lobbies {
			fmt.Printf("  %s  %-24s %d/%d  cart=%s\n", l.ID, l.Name, len(l.Players), l.MaxPlayers, l.CartID)
		}
		if page.NextPageToken == "" {
			return
		}
		pageToken = page.NextPageToken
	}
}
