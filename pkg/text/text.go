/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package text

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
)

const (
	UTF8 = "UTF-8"
	// detection only looks at a prefix of the input
	detectBytes = 64 * 1024
)

var (
	expectedCharsets = []string{UTF8, "GB-18030"}
	decoderMap       = make(map[string]encoding.Encoding)
)

func init() {
	decoderMap["GB-18030"] = simplifiedchinese.GB18030
	// alias
	decoderMap["GB18030"] = simplifiedchinese.GB18030
	decoderMap["GBK"] = simplifiedchinese.GB18030
	decoderMap["GB2312"] = simplifiedchinese.GB18030
}

// DetectCharset detects charset from bytes
func DetectCharset(bs []byte) string {
	if len(bs) > detectBytes {
		bs = bs[:detectBytes]
	}
	if charsetResults, err := chardet.NewTextDetector().DetectAll(bs); err == nil {
		for _, expected := range expectedCharsets {
			for _, result := range charsetResults {
				if result.Charset == expected {
					return result.Charset
				}
			}
		}
	}

	return UTF8
}

func GetEncoding(charset string) encoding.Encoding {
	return decoderMap[charset]
}

// Decode converts bs from charset to UTF-8. Unknown charsets and UTF-8 are returned as is.
func Decode(bs []byte, charset string) ([]byte, error) {
	enc := GetEncoding(charset)
	if enc == nil {
		return bs, nil
	}
	return enc.NewDecoder().Bytes(bs)
}

// ReadLines decodes raw log bytes using the detected charset and splits them into non-empty lines.
func ReadLines(bs []byte) ([]string, string, error) {
	charset := DetectCharset(bs)
	decoded, err := Decode(bs, charset)
	if err != nil {
		return nil, charset, err
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(decoded))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, charset, scanner.Err()
}
