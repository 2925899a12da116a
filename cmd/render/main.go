// Command render compiles a saved template JSON file into a self-contained
// email HTML document on stdout, for previewing output in a browser.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/dompl/campaignforge/config"
	"github.com/dompl/campaignforge/pkg/logger"
	"github.com/dompl/campaignforge/pkg/sections"
)

func main() {
	templatePath := flag.String("template", "", "path to a serialized template model (JSON)")
	dataPath := flag.String("data", "", "optional path to a token data context (JSON object)")
	plainText := flag.Bool("text", false, "emit the plain-text companion instead of HTML")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLoggerWithLevel(cfg.LogLevel)

	if *templatePath == "" {
		fmt.Fprintln(os.Stderr, "usage: render -template template.json [-data data.json] [-text]")
		os.Exit(2)
	}

	raw, err := os.ReadFile(*templatePath)
	if err != nil {
		log.Fatal(fmt.Sprintf("failed to read template: %v", err))
	}
	model, err := sections.UnmarshalTemplateModel(raw)
	if err != nil {
		log.Fatal(fmt.Sprintf("failed to parse template: %v", err))
	}

	data := map[string]interface{}{}
	if *dataPath != "" {
		rawData, err := os.ReadFile(*dataPath)
		if err != nil {
			log.Fatal(fmt.Sprintf("failed to read data context: %v", err))
		}
		if err := json.Unmarshal(rawData, &data); err != nil {
			log.Fatal(fmt.Sprintf("failed to parse data context: %v", err))
		}
	}

	renderer := sections.NewRenderer(log)
	rc := &sections.RenderContext{Data: data}

	var out string
	if *plainText {
		out, err = renderer.RenderPlainText(context.Background(), model, rc)
	} else {
		out, err = renderer.RenderDocument(context.Background(), model, rc)
	}
	if err != nil {
		log.Fatal(fmt.Sprintf("failed to render: %v", err))
	}
	fmt.Print(out)
}
