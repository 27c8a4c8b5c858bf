package engine

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"
)

// fakeEngineEnv selects a scripted engine personality for the re-executed test binary
const fakeEngineEnv = "CHESSMATCH_FAKE_ENGINE"

func TestMain(m *testing.M) {
	if script := os.Getenv(fakeEngineEnv); script != "" {
		os.Exit(runFakeEngine(script, os.Args[1:]))
	}
	os.Exit(m.Run())
}

// useFakeEngine makes the next spawned process behave like script and
// returns the binary path to hand to an adapter
func useFakeEngine(t *testing.T, script string) string {
	t.Helper()
	t.Setenv(fakeEngineEnv, script)
	return os.Args[0]
}

func runFakeEngine(script string, args []string) int {
	uciMode := false
	for _, a := range args {
		if a == DefaultUCIFlag {
			uciMode = true
		}
	}

	switch script {
	case "exit":
		return 3
	case "silent":
		// Reads forever, even past "quit"
		in := bufio.NewScanner(os.Stdin)
		for in.Scan() {
		}
		time.Sleep(time.Hour)
		return 0
	}

	in := bufio.NewScanner(os.Stdin)
	for in.Scan() {
		fields := strings.Fields(in.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quit":
			return 0
		case "uci":
			fmt.Println("id name fake")
			fmt.Println("uciok")
		case "isready":
			fmt.Println("readyok")
		case "xboard", "protover":
			fmt.Println("feature done=1")
		case "go":
			fmt.Println("info depth 1 score cp 20")
			reply(script, uciMode)
		}
	}
	return 0
}

func reply(script string, uciMode bool) {
	switch script {
	case "uci-e2e4":
		fmt.Println("bestmove e2e4 ponder e7e5")
	case "uci-garbage":
		fmt.Println("bestmove zz99")
	case "uci-truncated":
		fmt.Println("bestmove")
	case "cecp-san":
		fmt.Println("move e4")
	case "cecp-knight":
		fmt.Println("move Nf3")
	case "cecp-coord":
		fmt.Println("move e2e4")
	case "cecp-nonsense":
		if uciMode {
			fmt.Println("bestmove g1f3")
			return
		}
		fmt.Println("move Qh5xx")
	case "cecp-nonsense-nouci":
		if uciMode {
			fmt.Println("bestmove (none)")
			return
		}
		fmt.Println("move ???")
	}
}
