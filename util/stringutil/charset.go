package stringutil

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	unicodeEncoding "golang.org/x/text/encoding/unicode"
)

var ErrSeemsInvalid = errors.New("input seems not a valid string of specified charset")

// Key: charset name as reported by chardet.
var charsets = map[string]encoding.Encoding{
	"GB-18030":     simplifiedchinese.GB18030,
	"Big5":         traditionalchinese.Big5,
	"EUC-JP":       japanese.EUCJP,
	"ISO-2022-JP":  japanese.ISO2022JP,
	"Shift_JIS":    japanese.ShiftJIS,
	"EUC-KR":       korean.EUCKR,
	"UTF-16BE":     unicodeEncoding.UTF16(unicodeEncoding.BigEndian, unicodeEncoding.IgnoreBOM),
	"UTF-16LE":     unicodeEncoding.UTF16(unicodeEncoding.LittleEndian, unicodeEncoding.IgnoreBOM),
	"ISO-8859-1":   charmap.ISO8859_1,
	"windows-1252": charmap.Windows1252,
}

// DecodeText converts input of charset to UTF-8.
// Unless force is true, an output containing U+FFFD is reported with ErrSeemsInvalid.
func DecodeText(input []byte, charset string, force bool) (output []byte, err error) {
	switch enc, ok := charsets[charset]; {
	case charset == "UTF-8":
		output = input
	case ok:
		if output, err = enc.NewDecoder().Bytes(input); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported charset %s", charset)
	}
	if !force && strings.ContainsRune(string(output), utf8.RuneError) {
		return output, ErrSeemsInvalid
	}
	return output, nil
}

// DecodeLatin1 maps every byte to the rune of the same value. It never fails.
func DecodeLatin1(input []byte) string {
	output, err := charmap.ISO8859_1.NewDecoder().Bytes(input)
	if err != nil {
		return ""
	}
	return string(output)
}

// DecodeUTF8OrLatin1 returns input as is if it's valid UTF-8, or else decodes it as Latin-1.
func DecodeUTF8OrLatin1(input []byte) string {
	if utf8.Valid(input) {
		return string(input)
	}
	return DecodeLatin1(input)
}
