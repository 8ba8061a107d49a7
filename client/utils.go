package client

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/richinsley/cmfy/graphapi"
	"github.com/richinsley/cmfy/internal/xjson"
)

var pngSignature = []byte{137, 80, 78, 71, 13, 10, 26, 10}

// maxTextChunk bounds the tEXt chunk size read into memory.
const maxTextChunk = 16 << 20

// PngPromptKeyword is the tEXt keyword under which the server embeds the
// prompt that produced an image.
const PngPromptKeyword = "prompt"

// GetPngMetadata returns the tEXt chunks of a PNG stream keyed by keyword.
func GetPngMetadata(r io.Reader) (map[string]string, error) {
	header := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, &ParseError{What: "png header", Err: err}
	}
	if !bytes.Equal(header, pngSignature) {
		return nil, &ParseError{What: "png header", Err: errors.New("not a valid PNG file")}
	}

	txtChunks := make(map[string]string)
	for {
		var length uint32
		err := binary.Read(r, binary.BigEndian, &length)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{What: "png chunk", Err: err}
		}

		chunkType := make([]byte, 4)
		if _, err := io.ReadFull(r, chunkType); err != nil {
			return nil, &ParseError{What: "png chunk", Err: err}
		}

		if string(chunkType) == "tEXt" {
			if length > maxTextChunk {
				return nil, &ParseError{What: "png tEXt chunk", Err: fmt.Errorf("chunk of %d bytes exceeds %d", length, maxTextChunk)}
			}
			chunkData := make([]byte, length)
			if _, err := io.ReadFull(r, chunkData); err != nil {
				return nil, &ParseError{What: "png tEXt chunk", Err: err}
			}
			keywordEnd := bytes.IndexByte(chunkData, 0)
			if keywordEnd == -1 {
				return nil, &ParseError{What: "png tEXt chunk", Err: errors.New("missing keyword separator")}
			}
			txtChunks[string(chunkData[:keywordEnd])] = string(chunkData[keywordEnd+1:])
		} else if _, err := io.CopyN(io.Discard, r, int64(length)); err != nil {
			return nil, &ParseError{What: "png chunk", Err: err}
		}

		// crc
		if _, err := io.CopyN(io.Discard, r, 4); err != nil {
			return nil, &ParseError{What: "png chunk", Err: err}
		}
		if string(chunkType) == "IEND" {
			break
		}
	}

	return txtChunks, nil
}

// PromptFromPNG extracts the embedded prompt nodes of a generated image.
func PromptFromPNG(r io.Reader) (graphapi.PromptNodes, error) {
	chunks, err := GetPngMetadata(r)
	if err != nil {
		return nil, err
	}
	text, ok := chunks[PngPromptKeyword]
	if !ok {
		return nil, &ParseError{What: "png metadata", Err: errors.New("no embedded prompt")}
	}

	var nodes graphapi.PromptNodes
	if err := xjson.UnmarshalUseNumber([]byte(text), &nodes); err != nil {
		return nil, &ParseError{What: "embedded prompt", Err: err}
	}
	return nodes, nil
}
