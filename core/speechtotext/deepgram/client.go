// Package deepgram streams audio to Deepgram's live transcription API over
// a websocket. Streams start in the nova-3 multilingual mode and can be
// narrowed to a dedicated recognition language exactly once.
package deepgram

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/polyglot-core/core/audio"
	"github.com/koscakluka/polyglot-core/core/languages"
)

type TranscriptionClient struct {
	connMu sync.Mutex
	conn   *websocket.Conn

	lastMsgTs time.Time

	accumulatedTranscript string
	unendedSegment        bool

	// stateMu guards the stream configuration reused on reconnect.
	stateMu       sync.Mutex
	language      string
	switched      bool
	callbacks     callbackConfig
	wsConfig      websocketConfig
	encoding      *encodingInfo
	audioEncoding audio.EncodingInfo
}

func NewTranscriptionClient() *TranscriptionClient {
	return &TranscriptionClient{language: languages.Multilingual}
}

// Language returns the recognition language the stream currently requests.
func (s *TranscriptionClient) Language() string {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.language
}
