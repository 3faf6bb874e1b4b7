package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"kml-relay/internal/client"
	"kml-relay/internal/log"
	"kml-relay/internal/protocol"
	"kml-relay/internal/security"
)

func main() {
	mode := flag.String("mode", "", "Mode to run: 'upload', 'delete' or 'fetch'")
	filename := flag.String("file", "", "KML file to upload (upload mode)")
	fileURL := flag.String("url", "", "File URL returned by an upload (delete and fetch modes)")
	server := flag.String("server", "http://localhost:"+strconv.Itoa(protocol.DefaultPort), "Relay base URL")
	quiet := flag.Bool("quiet", false, "Do not draw progress bars")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	c := client.New(*server)
	if !*quiet {
		c.Progress = os.Stderr
	}

	switch *mode {
	case "upload":
		if *filename == "" {
			usage()
		}
		u, err := c.UploadFile(ctx, *filename)
		if err != nil {
			log.Fatalf("Error uploading %s: %v", *filename, err)
		}
		fmt.Println(u)
	case "delete":
		if *fileURL == "" {
			usage()
		}
		msg, err := c.Delete(ctx, *fileURL)
		if err != nil {
			log.Fatalf("Error deleting %s: %v", *fileURL, err)
		}
		fmt.Println(msg)
	case "fetch":
		if *fileURL == "" {
			usage()
		}
		fetch(ctx, c, *fileURL)
	default:
		usage()
	}
}

func fetch(ctx context.Context, c *client.Client, fileURL string) {
	name, err := security.NameFromURL(fileURL)
	if err != nil {
		log.Fatalf("Error reading file URL: %v", err)
	}
	out := "downloaded_" + name
	f, err := os.Create(out)
	if err != nil {
		log.Fatalf("Error creating local file: %v", err)
	}
	n, err := c.Fetch(ctx, fileURL, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(out)
		log.Fatalf("Error downloading file: %v", err)
	}
	fmt.Printf("Successfully downloaded %s (%d bytes)\n", out, n)
}

func usage() {
	fmt.Println("Usage: client -mode upload -file route.kml [-server URL]")
	fmt.Println("       client -mode delete|fetch -url <fileUrl> [-server URL]")
	os.Exit(2)
}
