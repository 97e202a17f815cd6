package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mangareader/internal/log"
)

func main() {
	var (
		addr    string
		wsURL   string
		udpAddr string
		userID  string
		pretty  bool
	)

	rootCmd := &cobra.Command{
		Use:          "sync-client",
		Short:        "Tail user-state events from the API server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			for {
				var err error
				switch {
				case udpAddr != "":
					if userID == "" {
						return fmt.Errorf("--user is required with --udp")
					}
					err = runUDP(udpAddr, userID, pretty)
				case wsURL != "":
					err = runWebSocket(wsURL, pretty)
				default:
					err = runTCP(addr, pretty)
				}
				log.Warn("sync-client disconnected", zap.Error(err))
				time.Sleep(time.Second)
			}
		},
	}
	rootCmd.Flags().StringVar(&addr, "addr", "127.0.0.1:7070", "TCP sync server address")
	rootCmd.Flags().StringVar(&wsURL, "ws", "", "websocket URL (ws://host:8080/ws); overrides --addr")
	rootCmd.Flags().StringVar(&udpAddr, "udp", "", "UDP sync server address; receives only --user's events")
	rootCmd.Flags().StringVar(&userID, "user", "", "user id to register for over UDP")
	rootCmd.Flags().BoolVar(&pretty, "pretty", true, "pretty print JSON events")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runTCP(addr string, pretty bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()
	log.Info("sync-client connected", zap.String("addr", addr))

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		printLine(sc.Bytes(), pretty)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return net.ErrClosed
}

func runWebSocket(u string, pretty bool) error {
	ws, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u, err)
	}
	defer ws.Close()
	log.Info("sync-client connected", zap.String("url", u))

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			return err
		}
		printLine(msg, pretty)
	}
}

func runUDP(addr, userID string, pretty bool) error {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	reg, _ := json.Marshal(map[string]string{"type": "register", "user_id": userID})
	if _, err := conn.Write(reg); err != nil {
		return err
	}
	log.Info("sync-client registered", zap.String("addr", addr), zap.String("user_id", userID))

	buf := make([]byte, 2048)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return err
		}
		printLine(buf[:n], pretty)
	}
}

func printLine(line []byte, pretty bool) {
	if !pretty {
		fmt.Println(string(line))
		return
	}
	var obj map[string]any
	if err := json.Unmarshal(line, &obj); err != nil {
		fmt.Println(string(line))
		return
	}
	b, _ := json.MarshalIndent(obj, "", "  ")
	fmt.Println(string(b))
}
