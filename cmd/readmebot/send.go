package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/nadzzz/readmebot/internal/message"
	grpctransport "github.com/nadzzz/readmebot/internal/transport/grpc"
)

var sendCmd = &cobra.Command{
	Use:   "send [text...]",
	Short: "Send one event to a running daemon over gRPC",
	Long:  "Send a text message, command or audio file to a readmebot daemon's gRPC transport and print the reply. Useful for driving a conversation from a terminal.",
	RunE:  runSend,
}

var (
	sendAddr      string
	sendUser      string
	sendAudioFile string
	sendOutDir    string
	sendTimeout   time.Duration
)

func init() {
	sendCmd.Flags().StringVar(&sendAddr, "addr", "localhost:50051", "gRPC address of the daemon")
	sendCmd.Flags().StringVarP(&sendUser, "user", "u", "cli:"+os.Getenv("USER"), "Conversation user id")
	sendCmd.Flags().StringVarP(&sendAudioFile, "audio", "a", "", "Path to an audio file to send instead of text")
	sendCmd.Flags().StringVarP(&sendOutDir, "out-dir", "o", ".", "Directory for received attachments")
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", 2*time.Minute, "Request timeout")

	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	ev := &message.Event{UserID: sendUser, Text: strings.Join(args, " ")}
	if sendAudioFile != "" {
		audio, err := os.ReadFile(sendAudioFile)
		if err != nil {
			return fmt.Errorf("reading audio: %w", err)
		}
		ev.Kind = message.KindAudio
		ev.Audio = audio
		ev.Format = filepath.Ext(sendAudioFile)
	}
	if ev.Text == "" && ev.Audio == nil {
		return fmt.Errorf("nothing to send: pass text or --audio")
	}

	conn, err := grpc.NewClient(sendAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", sendAddr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	resp, err := grpctransport.Send(ctx, conn, ev)
	if err != nil {
		return err
	}
	return printResponse(cmd, resp, sendOutDir)
}
