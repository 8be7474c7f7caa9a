package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"

	"github.com/cinematch/backend/internal/chat"
	"github.com/cinematch/backend/internal/config"
	"github.com/cinematch/backend/internal/engine"
	"github.com/cinematch/backend/internal/logging"
	"github.com/cinematch/backend/internal/storage"
)

var (
	assistantStyle = color.New(color.BgBlack, color.FgGreen)
	promptStyle    = color.New(color.FgCyan, color.OpBold)
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	cfg.Log.Level = quietLevel(cfg.Log.Level)
	entry, err := logging.New(cfg.Log, "cinematch-cli", os.Stderr)
	if err != nil {
		logrus.Fatalf("Failed to set up logging: %v", err)
	}

	ctx := context.Background()
	artifacts := storage.NewFileStorage(cfg.Artifacts.CatalogPath(), cfg.Artifacts.VectorSpacePath())
	eng, err := engine.Load(ctx, artifacts, entry)
	if err != nil {
		entry.Fatalf("Failed to load recommender: %v", err)
	}

	conv := chat.NewConversation(eng, chat.NewMemoryStore(), cfg.Chat, entry, nil)
	if err := run(ctx, conv, os.Stdin, os.Stdout); err != nil {
		entry.Fatalf("Chat failed: %v", err)
	}
}

// quietLevel keeps the terminal for the conversation. The info level is
// raised to warn; debug, trace and stricter levels are kept as configured.
func quietLevel(level string) string {
	parsed, err := logrus.ParseLevel(level)
	if err != nil || parsed == logrus.InfoLevel {
		return "warn"
	}
	return level
}

func run(ctx context.Context, conv *chat.Conversation, in io.Reader, out io.Writer) error {
	session, err := conv.Start(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conv.End(ctx, session.ID) }()

	for _, m := range session.History {
		say(out, m.Content)
	}
	fmt.Fprintln(out, "(type 'quit' to leave)")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, promptStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(text) {
		case "":
			continue
		case "quit", "exit", "bye":
			say(out, "Enjoy the movie!")
			return nil
		}

		reply, err := conv.Reply(ctx, session.ID, text)
		if err != nil {
			return err
		}
		say(out, reply.Message.Content)
		if len(reply.Recommendations) > 1 {
			renderTable(out, reply.Recommendations)
		}
	}
}

func say(out io.Writer, text string) {
	fmt.Fprintln(out, assistantStyle.Render(text))
}

func renderTable(out io.Writer, recs []engine.Recommendation) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"#", "Title", "Categories", "Score"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for i, r := range recs {
		table.Append([]string{
			strconv.Itoa(i + 1),
			r.Title,
			strings.ReplaceAll(r.Categories, "|", ", "),
			strconv.FormatFloat(r.Score, 'f', 3, 64),
		})
	}
	table.Render()
}
