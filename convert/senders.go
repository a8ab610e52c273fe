/*
NAME
  senders.go

DESCRIPTION
  Output senders for the server modes: the HTTP frame server with its
  embedded player script, and the WebSocket server and client speaking
  the v/a/n/f request protocol.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Alan Noble <alan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package convert

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ausocean/utils/logging"
	"github.com/gorilla/websocket"
)

// Audio chunk sizes served per one-second request.
const (
	audioChunkPCM   = 48000
	audioChunkDFPWM = 6000
)

// playLua is the ComputerCraft player program served at the HTTP
// root. The server address is prepended at request time.
const playLua = "'local function b(c)local d,e=http.get('http://'..a..c,nil,true)if not d then error(e)end;local f=d.readAll()d.close()return f end;local g=textutils.unserializeJSON(b('/info'))local h,i={},{}local j=peripheral.find'speaker'term.clear()local k=2;parallel.waitForAll(function()for l=0,g.length-1 do h[l]=b('/video/'..l)if k>0 then k=k-1 end end end,function()for l=0,g.length/g.fps do i[l]=b('/audio/'..l)if k>0 then k=k-1 end end end,function()while k>0 do os.pullEvent()end;local m=os.epoch'utc'for l=0,g.length-1 do while not h[l]do os.pullEvent()end;local n=h[l]h[l]=nil;local o,p=assert(load(n,'=frame','t',{}))()for q=0,#p do term.setPaletteColor(2^q,table.unpack(p[q]))end;for s,t in ipairs(o)do term.setCursorPos(1,s)term.blit(table.unpack(t))end;while os.epoch'utc'<m+(l+1)/g.fps*1000 do sleep(1/g.fps)end end end,function()if not j or not j.playAudio then return end;while k>0 do os.pullEvent()end;local u=0;while u<g.length/g.fps do while not i[u]do os.pullEvent()end;local v=i[u]i[u]=nil;v={v:byte(1,-1)}for q=1,#v do v[q]=v[q]-128 end;u=u+1;if not j.playAudio(v)then repeat local w,x=os.pullEvent('speaker_audio_empty')until x==peripheral.getName(j)end end end)for q=0,15 do term.setPaletteColor(2^q,term.nativePaletteColor(2^q))end;term.setBackgroundColor(colors.black)term.setTextColor(colors.white)term.setCursorPos(1,1)term.clear()"

// httpServer serves split frames plus the player program.
type httpServer struct {
	store *storage
	log   logging.Logger
	dfpwm bool
	srv   *http.Server
}

func newHTTPServer(store *storage, port int, dfpwm bool, log logging.Logger) *httpServer {
	s := &httpServer{store: store, log: log, dfpwm: dfpwm}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	s.srv = &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	return s
}

func (s *httpServer) start() {
	go func() {
		err := s.srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			s.log.Error("http server stopped", "error", err.Error())
		}
	}()
}

func (s *httpServer) stop() { s.srv.Close() }

func (s *httpServer) audioChunk() int {
	if s.dfpwm {
		return audioChunkDFPWM
	}
	return audioChunkPCM
}

func (s *httpServer) handle(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "" || path == "/":
		w.Header().Set("Content-Type", "text/x-lua")
		fmt.Fprintf(w, "local a='%s%s", r.Host, playLua)
	case path == "/info":
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"length": s.store.frameCount(),
			"fps":    s.store.fps,
		})
	case len(path) > 7 && path[:7] == "/video/":
		n, err := strconv.Atoi(path[7:])
		if err != nil {
			http.Error(w, "Invalid path", http.StatusBadRequest)
			return
		}
		f, ok := s.store.frame(n)
		if !ok {
			http.Error(w, "404 Not Found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/x-lua")
		fmt.Fprint(w, f)
	case len(path) > 7 && path[:7] == "/audio/":
		n, err := strconv.Atoi(path[7:])
		if err != nil {
			http.Error(w, "Invalid path", http.StatusBadRequest)
			return
		}
		size := s.audioChunk()
		chunk, ok := s.store.audioAt(n*size, size)
		if !ok {
			http.Error(w, "404 Not Found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(chunk)
	default:
		http.Error(w, "404 Not Found", http.StatusNotFound)
	}
}

// wsFrameLimit chunks binary frame payloads.
const wsFrameLimit = 65535

// wsServer accepts WebSocket clients and answers the text protocol:
// "v<n>" a video frame, "a<offset>" one second of audio, "n" the
// total frame count, "f" the frame rate. Out-of-range requests are
// answered with "!".
type wsServer struct {
	store *storage
	log   logging.Logger
	dfpwm bool
	srv   *http.Server
}

var wsUpgrader = websocket.Upgrader{
	// The in-game client sends no Origin header worth checking.
	CheckOrigin: func(*http.Request) bool { return true },
}

func newWSServer(store *storage, port int, dfpwm bool, log logging.Logger) *wsServer {
	s := &wsServer{store: store, log: log, dfpwm: dfpwm}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warning("websocket upgrade failed", "error", err.Error())
			return
		}
		serveWebSocket(conn, store, dfpwm, log)
	})
	s.srv = &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	return s
}

func (s *wsServer) start() {
	go func() {
		err := s.srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			s.log.Error("websocket server stopped", "error", err.Error())
		}
	}()
}

func (s *wsServer) stop() { s.srv.Close() }

// dialWebSocket connects out to a server and runs the same protocol
// loop over the client connection.
func dialWebSocket(url string, store *storage, dfpwm bool, log logging.Logger) error {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return err
	}
	go serveWebSocket(conn, store, dfpwm, log)
	return nil
}

func serveWebSocket(conn *websocket.Conn, store *storage, dfpwm bool, log logging.Logger) {
	defer conn.Close()
	for {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			log.Debug("websocket closed", "error", err.Error())
			return
		}
		if len(msg) == 0 {
			continue
		}
		store.handoff()
		switch msg[0] {
		case 'v':
			n, err := strconv.Atoi(string(msg[1:]))
			if err != nil {
				conn.WriteMessage(websocket.TextMessage, []byte("!"))
				continue
			}
			f, ok := store.frame(n)
			if !ok {
				conn.WriteMessage(websocket.TextMessage, []byte("!"))
				continue
			}
			for i := 0; i < len(f); i += wsFrameLimit {
				end := i + wsFrameLimit
				if end > len(f) {
					end = len(f)
				}
				if err := conn.WriteMessage(websocket.BinaryMessage, []byte(f[i:end])); err != nil {
					log.Warning("websocket frame send failed", "error", err.Error())
					return
				}
			}
		case 'a':
			offset, err := strconv.Atoi(string(msg[1:]))
			if err != nil {
				conn.WriteMessage(websocket.TextMessage, []byte("!"))
				continue
			}
			size := audioChunkPCM
			if dfpwm {
				size = audioChunkDFPWM
				offset /= 8
			}
			var chunk []byte
			var ok bool
			if store.streamed {
				chunk, ok = store.audioNext(size)
			} else {
				chunk, ok = store.audioAt(offset, size)
			}
			if !ok {
				conn.WriteMessage(websocket.TextMessage, []byte("!"))
				continue
			}
			conn.WriteMessage(websocket.BinaryMessage, chunk)
		case 'n':
			conn.WriteMessage(websocket.TextMessage, []byte(strconv.Itoa(store.totalFrames)))
		case 'f':
			conn.WriteMessage(websocket.TextMessage, []byte(strconv.FormatFloat(store.fps, 'g', -1, 64)))
		}
	}
}
