// Command inspect dumps the message slots of a badger store as a table.
// Useful against a live instance's data directory thanks to read-only mode.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"

	"orai-chat/domain"
)

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	room := flag.String("room", "", "Restrict the scan to one room")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Kind", "Created", "Room", "Sender", "Lang", "Content"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	prefix := "msg:"
	if *room != "" {
		prefix = fmt.Sprintf("msg:%s:", *room)
	}

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				var message domain.Message
				if err := json.Unmarshal(v, &message); err != nil {
					fmt.Printf("Error unmarshaling key %s: %v\n", string(item.Key()), err)
					return nil
				}

				table.Append([]string{
					string(item.Key()),
					colorize(message.Kind),
					message.CreatedAt.Format("2006-01-02 15:04:05"),
					message.RoomID,
					message.SenderName,
					message.Lang,
					truncate(message.Content),
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

// truncate bounds a cell to 60 runes; slicing runes keeps multi-byte
// content intact.
func truncate(content string) string {
	runes := []rune(content)
	if len(runes) <= 60 {
		return content
	}
	return string(runes[:57]) + "..."
}

func colorize(kind domain.Kind) string {
	switch kind {
	case domain.KindChat:
		return color.Green.Sprint(kind)
	case domain.KindEdit:
		return color.Yellow.Sprint(kind)
	case domain.KindDelete:
		return color.Red.Sprint(kind)
	case domain.KindSystem:
		return color.Cyan.Sprint(kind)
	default:
		return string(kind)
	}
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)
	return badger.Open(opts)
}
