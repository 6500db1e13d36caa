// Command base64 turns the photos in ./images into function payloads so the
// try-on function can be exercised by hand:
//
//	go run ./cmd/base64 && go run ./cmd/function < encoded/event.json
package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lakarijeprvovencani/tl-tryon/internal/infrastructure/function"
)

const (
	inputDir  = "images"
	outputDir = "encoded"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// このファイルがある同じ階層の「images」ディレクトリの中身を取得する
	files, err := os.ReadDir(inputDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read images directory")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("failed to create output directory")
	}

	validExtensions := []string{".jpg", ".png", ".jpeg"}
	encodedByName := map[string]string{}

	for _, file := range files {
		// 拡張子が.jpg, .png, .jpegのファイルを取得
		if !slices.Contains(validExtensions, strings.ToLower(filepath.Ext(file.Name()))) {
			continue
		}
		encoded, err := encode(filepath.Join(inputDir, file.Name()))
		if err != nil {
			log.Fatal().Err(err).Str("file", file.Name()).Msg("failed to encode image")
		}
		// ファイル名の拡張子を除いたものをファイル名として保存
		name := strings.TrimSuffix(file.Name(), filepath.Ext(file.Name()))
		if err := save(name+".txt", []byte(encoded)); err != nil {
			log.Fatal().Err(err).Msg("failed to save encoded image")
		}
		encodedByName[strings.ToLower(name)] = encoded
	}

	person, ok := encodedByName["person"]
	if !ok {
		log.Info().Int("encoded", len(encodedByName)).Msg("no person image found; skipping payload")
		return
	}

	payload, err := json.Marshal(function.Payload{
		PersonImage:  person,
		GarmentImage: encodedByName["garment"],
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to encode payload")
	}
	event, err := json.MarshalIndent(function.Event{
		HTTPMethod: "POST",
		Headers:    map[string]string{"content-type": "application/json"},
		Body:       string(payload),
	}, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to encode event")
	}

	if err := save("payload.json", payload); err != nil {
		log.Fatal().Err(err).Msg("failed to save payload")
	}
	if err := save("event.json", event); err != nil {
		log.Fatal().Err(err).Msg("failed to save event")
	}
	log.Info().Str("dir", outputDir).Msg("wrote payload.json and event.json")
}

// encode re-encodes the image as PNG and returns it in base64.
func encode(file string) (string, error) {
	// 画像ファイルを開く
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()

	// 画像デコード
	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", file, err)
	}

	// 画像をPNGにエンコード
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", file, err)
	}

	// Base64エンコード
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func save(name string, data []byte) error {
	// 同じ階層の「encoded」ディレクトリに保存する
	return os.WriteFile(filepath.Join(outputDir, name), data, 0o644)
}
