package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jeffd/weave/clock"
	"github.com/jeffd/weave/site"
	"github.com/jeffd/weave/text"
	"github.com/jeffd/weave/weave"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the collaboration server",
	RunE:  runServe,
}

// debugMsgType and debugMessage mirror the teacher's debug channel, which
// decouples the slow act of writing JSONL to disk from the request path.
type debugMsgType int

const (
	writeDebug debugMsgType = iota
	syncDebug
)

type debugMessage struct {
	msgType debugMsgType
	payload interface{}
}

// state holds every document this server knows about. Documents share one
// site registry and one Lamport clock, exactly as the teacher's state
// shares one process-wide Sitemap across every *crdt.RList in listmap.
type state struct {
	sync.Mutex

	debugMsgs chan<- debugMessage

	registry *site.Registry
	clk      *clock.Clock

	docs     map[string]*weave.Weave[rune]
	docOrder []string
	subs     map[string][]*websocket.Conn

	numEditRequests int
	numForkRequests int
	numSyncRequests int
}

func newState(debugMsgs chan<- debugMessage) *state {
	return &state{
		debugMsgs: debugMsgs,
		registry:  site.NewRegistry(),
		clk:       &clock.Clock{},
		docs:      make(map[string]*weave.Weave[rune]),
		subs:      make(map[string][]*websocket.Conn),
	}
}

func docIndex(name string, names []string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return len(names)
}

// getOrCreate returns the named document, minting a fresh site and an
// empty weave on first use.
func (s *state) getOrCreate(name string) *weave.Weave[rune] {
	w, ok := s.docs[name]
	if ok {
		return w
	}
	owner := s.registry.SiteID(uuid.New())
	w = weave.New[rune](owner)
	s.docs[name] = w
	s.docOrder = append(s.docOrder, name)
	return w
}

func runServe(cmd *cobra.Command, args []string) error {
	debugMsgs := runDebug()
	s := newState(debugMsgs)

	mux := http.NewServeMux()
	if dir := viper.GetString("static_dir"); dir != "" {
		mux.Handle("/", http.FileServer(http.Dir(dir)))
	}
	mux.Handle("/doc/", docRouter{s})

	addr := fmt.Sprintf(":%d", viper.GetInt("port"))
	log.Printf("Serving in %s\n", addr)
	return http.ListenAndServe(addr, mux)
}

// docRouter dispatches requests of the shape /doc/{name}/{action} to the
// matching handler. net/http's pattern mux can't express a path variable
// in this Go version's stdlib, so it's parsed by hand, the same way the
// teacher wires one handler struct per endpoint.
type docRouter struct {
	s *state
}

func (h docRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	name, action, ok := splitDocPath(req.URL.Path)
	if !ok {
		http.NotFound(w, req)
		return
	}
	switch action {
	case "edit":
		h.s.handleEdit(w, req, name)
	case "sync":
		h.s.handleSync(w, req, name)
	case "fork":
		h.s.handleFork(w, req, name)
	case "ws":
		h.s.handleWS(w, req, name)
	default:
		http.NotFound(w, req)
	}
}

// splitDocPath parses "/doc/{name}/{action}" into its two components.
func splitDocPath(path string) (name, action string, ok bool) {
	const prefix = "/doc/"
	if len(path) <= len(prefix) || path[:len(prefix)] != prefix {
		return "", "", false
	}
	rest := path[len(prefix):]
	for i := len(rest) - 1; i >= 0; i-- {
		if rest[i] == '/' {
			return rest[:i], rest[i+1:], true
		}
	}
	return "", "", false
}

// -----

type editRequest struct {
	Text string `json:"text"`
}

func (s *state) handleEdit(w http.ResponseWriter, req *http.Request, name string) {
	parser := json.NewDecoder(req.Body)
	editReq := &editRequest{}
	if err := parser.Decode(editReq); err != nil {
		log.Printf("Error parsing body in /doc/%s/edit: %v", name, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.Lock()
	defer s.Unlock()
	s.writeDebug(map[string]interface{}{
		"Type":    "edit",
		"Doc":     name,
		"Request": editReq,
	})

	doc := s.getOrCreate(name)
	if err := text.Edit(doc, editReq.Text, weave.StartAtomId, s.clk); err != nil {
		log.Printf("%s: edit error: %v", name, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	content := text.String(doc)
	log.Printf("%s: value = %s", name, content)

	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, content)

	s.broadcast(name, doc)
	s.writeDebug(map[string]interface{}{
		"Type":   "editStep",
		"ReqIdx": s.numEditRequests,
		"Doc":    name,
		"Weft":   doc.CompleteWeft(),
	})
	s.numEditRequests++
	s.syncDebug()
}

// -----

type forkRequest struct {
	As string `json:"as"`
}

func (s *state) handleFork(w http.ResponseWriter, req *http.Request, name string) {
	parser := json.NewDecoder(req.Body)
	forkReq := &forkRequest{}
	if err := parser.Decode(forkReq); err != nil {
		log.Printf("Error parsing body in /doc/%s/fork: %v", name, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.Lock()
	defer s.Unlock()
	s.writeDebug(map[string]interface{}{
		"Type":    "fork",
		"Doc":     name,
		"Request": forkReq,
	})

	local, ok := s.docs[name]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "unknown document %q", name)
		return
	}
	if _, ok := s.docs[forkReq.As]; ok {
		w.WriteHeader(http.StatusPreconditionFailed)
		fmt.Fprintf(w, "document already exists: %q", forkReq.As)
		return
	}

	newSite := s.registry.SiteID(uuid.New())
	s.docs[forkReq.As] = weave.FromSerialized[rune](newSite, append([]weave.Atom[rune]{}, local.Atoms()...))
	s.docOrder = append(s.docOrder, forkReq.As)
	log.Printf("%s: fork = %s", name, forkReq.As)

	s.writeDebug(map[string]interface{}{
		"Type":      "forkStep",
		"ReqIdx":    s.numForkRequests,
		"LocalIdx":  docIndex(name, s.docOrder),
		"RemoteIdx": docIndex(forkReq.As, s.docOrder),
	})
	s.numForkRequests++
	s.syncDebug()

	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, forkReq.As)
}

// -----

type syncRequest struct {
	With []string `json:"with"`
}

func (s *state) handleSync(w http.ResponseWriter, req *http.Request, name string) {
	parser := json.NewDecoder(req.Body)
	syncReq := &syncRequest{}
	if err := parser.Decode(syncReq); err != nil {
		log.Printf("Error parsing body in /doc/%s/sync: %v", name, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.Lock()
	defer s.Unlock()
	s.writeDebug(map[string]interface{}{
		"Type":    "sync",
		"Doc":     name,
		"Request": syncReq,
	})

	local, ok := s.docs[name]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "unknown document %q", name)
		return
	}
	for i, other := range syncReq.With {
		remote, ok := s.docs[other]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, "unknown document %q", other)
			return
		}
		if err := local.Integrate(remote); err != nil {
			log.Printf("%s: sync error merging %s: %v", name, other, err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		log.Printf("%s: merge = %s", name, other)

		s.writeDebug(map[string]interface{}{
			"Type":      "syncStep",
			"ReqIdx":    s.numSyncRequests,
			"StepIdx":   i,
			"LocalIdx":  docIndex(name, s.docOrder),
			"RemoteIdx": docIndex(other, s.docOrder),
		})
	}

	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, text.String(local))

	s.broadcast(name, local)
	s.numSyncRequests++
	s.syncDebug()
}

// -----

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWS upgrades to a websocket that receives the document's
// CompleteWeft every time an edit or sync changes it, so a connected peer
// knows when its own copy has fallen behind and should re-sync — the
// teacher's demo has no equivalent and instead relies on the frontend
// polling /edit and /sync directly.
func (s *state) handleWS(w http.ResponseWriter, req *http.Request, name string) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Printf("%s: websocket upgrade failed: %v", name, err)
		return
	}

	s.Lock()
	s.subs[name] = append(s.subs[name], conn)
	doc := s.getOrCreate(name)
	s.Unlock()

	if err := conn.WriteJSON(doc.CompleteWeft()); err != nil {
		conn.Close()
		return
	}

	// Block until the peer disconnects; this connection has no inbound
	// protocol of its own, it only receives pushes.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.Lock()
			s.removeSub(name, conn)
			s.Unlock()
			conn.Close()
			return
		}
	}
}

func (s *state) removeSub(name string, conn *websocket.Conn) {
	subs := s.subs[name]
	for i, c := range subs {
		if c == conn {
			s.subs[name] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// broadcast pushes doc's current weft to every connected subscriber of
// name, dropping any connection that errors.
func (s *state) broadcast(name string, doc *weave.Weave[rune]) {
	subs := s.subs[name]
	if len(subs) == 0 {
		return
	}
	weft := doc.CompleteWeft()
	var alive []*websocket.Conn
	for _, conn := range subs {
		if err := conn.WriteJSON(weft); err != nil {
			conn.Close()
			continue
		}
		alive = append(alive, conn)
	}
	s.subs[name] = alive
}

// -----

func (s *state) isDebug() bool {
	return s.debugMsgs != nil
}

func (s *state) writeDebug(x interface{}) {
	if s.isDebug() {
		s.debugMsgs <- debugMessage{msgType: writeDebug, payload: x}
	}
}

func (s *state) syncDebug() {
	if s.isDebug() {
		s.debugMsgs <- debugMessage{msgType: syncDebug}
	}
}

func runDebug() chan<- debugMessage {
	f := createDebug()
	if f == nil {
		return nil
	}
	ch := make(chan debugMessage, 10)
	go func() {
		for msg := range ch {
			switch msg.msgType {
			case writeDebug:
				if bs, err := json.Marshal(msg.payload); err != nil {
					log.Printf("Error while writing to debug file: %v", err)
				} else {
					f.Write(bs)
					f.WriteString("\n")
				}
			case syncDebug:
				f.Sync()
			}
		}
		f.Close()
	}()
	return ch
}

func createDebug() *os.File {
	debug := viper.GetBool("debug")
	debugFilename := viper.GetString("debug_file")
	if !debug && debugFilename == "" {
		return nil
	}
	if debugFilename == "" {
		datetime := time.Now().Format("2006-01-02T15:04:05")
		debugFilename = fmt.Sprintf("log_%s.jsonl", datetime)
	}
	debugFile, err := os.Create(debugFilename)
	if err != nil {
		log.Printf("Error opening debug file: %v", err)
		return nil
	}
	return debugFile
}
