/*
NAME
  ass.go

DESCRIPTION
  A deliberately small ASS/SSA subtitle parser: script info, styles
  and dialogue lines only, no effects. Events are expanded into a
  frame-number keyed multimap for compositing.

AUTHOR
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package subtitle parses ASS subtitle files and composites styled
// text events onto character/color cell arrays or into 32vid subtitle
// chunks.
package subtitle

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/ausocean/sanjuuni/frame"
)

// Event is one styled subtitle event, in subtitle-script coordinates.
type Event struct {
	Width, Height  int // PlayRes of the script
	StartFrame     int
	Length         int
	Alignment      int // numpad alignment 1..9
	MarginLeft     int
	MarginRight    int
	MarginVertical int
	Color          frame.RGB
	Text           string
}

// Events maps frame numbers to the events covering them.
type Events map[int][]Event

// parseTime reads an H:MM:SS.cc timestamp as seconds.
func parseTime(s string) float64 {
	if len(s) < 10 {
		return 0
	}
	d := func(i int) float64 { return float64(s[i] - '0') }
	return d(0)*3600 + d(2)*600 + d(3)*60 + d(5)*10 + d(6) + d(8)*0.1 + d(9)*0.01
}

// parseColor reads an ASS color: &H-prefixed hex in BGR order, or a
// decimal integer.
func parseColor(s string) frame.RGB {
	var v uint64
	if strings.HasPrefix(s, "&H") || strings.HasPrefix(s, "&h") {
		v, _ = strconv.ParseUint(strings.TrimRight(s[2:], "&"), 16, 64)
	} else {
		v, _ = strconv.ParseUint(s, 10, 64)
	}
	return frame.RGB{R: uint8(v), G: uint8(v >> 8), B: uint8(v >> 16)}
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

// splitFields splits a Format/Style/Dialogue payload on commas. The
// last field of a Dialogue line (the text) keeps its commas, so n
// limits the number of splits.
func splitFields(s string, n int) []string {
	if n <= 0 {
		return strings.Split(s, ",")
	}
	return strings.SplitN(s, ",", n)
}

// Parse reads an ASS script and expands every dialogue line into the
// frames it covers at the given frame rate.
func Parse(r io.Reader, framerate float64) (Events, error) {
	events := make(Events)
	styles := make(map[string]map[string]string)
	var format []string
	width, height := 0, 0
	isASS := false

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		colon := strings.Index(line, ":")
		if colon < 0 {
			continue
		}
		typ := line[:colon]
		data := strings.TrimSpace(line[colon+1:])
		switch typ {
		case "ScriptType":
			isASS = data == "v4.00+" || data == "V4.00+"
		case "PlayResX":
			width = atoiDefault(data, 0)
		case "PlayResY":
			height = atoiDefault(data, 0)
		case "Format":
			format = nil
			for _, f := range splitFields(data, 0) {
				format = append(format, strings.TrimSpace(f))
			}
		case "Style":
			fields := splitFields(data, len(format))
			style := make(map[string]string, len(format))
			for i, name := range format {
				if i < len(fields) {
					style[name] = strings.TrimSpace(fields[i])
				}
			}
			styles[style["Name"]] = style
		case "Dialogue":
			fields := splitFields(data, len(format))
			params := make(map[string]string, len(format))
			for i, name := range format {
				if i < len(fields) {
					params[name] = fields[i]
				}
			}
			style, ok := styles[strings.TrimSpace(params["Style"])]
			if !ok {
				style = styles["Default"]
			}
			start := int(parseTime(strings.TrimSpace(params["Start"])) * framerate)
			end := int(parseTime(strings.TrimSpace(params["End"])) * framerate)
			if end <= start {
				continue
			}

			align := atoiDefault(style["Alignment"], 0)
			if !isASS {
				// SSA alignment codes 5..7 (top) and 9..11 (middle) map
				// onto the numpad rows 7..9 and 4..6.
				switch {
				case align >= 9:
					align -= 5
				case align >= 5:
					align += 2
				}
			}
			if align == 0 {
				align = 2
			}
			ev := Event{
				Width:          width,
				Height:         height,
				StartFrame:     start,
				Length:         end - start,
				Alignment:      align,
				MarginLeft:     marginOf(params, style, "MarginL"),
				MarginRight:    marginOf(params, style, "MarginR"),
				MarginVertical: marginOf(params, style, "MarginV"),
				Color:          parseColor(style["PrimaryColour"]),
				Text:           params["Text"],
			}
			for i := start; i < end; i++ {
				events[i] = append(events[i], ev)
			}
		}
	}
	return events, sc.Err()
}

// marginOf resolves a margin: the dialogue override wins unless zero.
func marginOf(params, style map[string]string, key string) int {
	if v := atoiDefault(params[key], 0); v != 0 {
		return v
	}
	return atoiDefault(style[key], 0)
}

// Lines splits an event's text on \n and \N, stripping {...} override
// blocks.
func (e Event) Lines() []string {
	var lines []string
	var cur strings.Builder
	t := e.Text
	for i := 0; i < len(t); i++ {
		switch {
		case t[i] == '\\' && i+1 < len(t) && (t[i+1] == 'n' || t[i+1] == 'N'):
			lines = append(lines, cur.String())
			cur.Reset()
			i++
		case t[i] == '{':
			end := strings.IndexByte(t[i:], '}')
			if end < 0 {
				i = len(t)
				break
			}
			i += end
		default:
			cur.WriteByte(t[i])
		}
	}
	return append(lines, cur.String())
}
