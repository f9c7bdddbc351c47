package nakama

import (
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"guinote/internal/app"
	"guinote/internal/domain"
)

var ErrBadRequest = errors.New("malformed request")

// eventOpCodes maps service events to the op code they are dispatched with.
var eventOpCodes = map[app.EventKind]int64{
	app.EventHandStarted:     OpHandStarted,
	app.EventHandDealt:       OpHandDealt,
	app.EventCardPlayed:      OpCardPlayed,
	app.EventTrickWon:        OpTrickWon,
	app.EventCardsDrawn:      OpCardsDrawn,
	app.EventArrastreStarted: OpArrastreStarted,
	app.EventMeldDeclared:    OpMeldDeclared,
	app.EventSevenExchanged:  OpSevenExchanged,
	app.EventHandEnded:       OpHandEnded,
	app.EventMatchEnded:      OpMatchEnded,
}

// toStruct converts any JSON-encodable value into a google.protobuf.Struct. Field names
// follow the json tags of v.
func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return structpb.NewStruct(fields)
}

// encodePayload serializes v as a binary google.protobuf.Struct.
func encodePayload(v interface{}) ([]byte, error) {
	s, err := toStruct(v)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

// decodeRequest parses a client message. An empty body is an empty request.
func decodeRequest(data []byte) (*structpb.Struct, error) {
	req := &structpb.Struct{}
	if len(data) == 0 {
		return req, nil
	}
	if err := proto.Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return req, nil
}

func stringField(req *structpb.Struct, key string) (string, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrBadRequest, key)
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %q is not a string", ErrBadRequest, key)
	}
	return s.StringValue, nil
}

// cardFromRequest reads {"card": "oros-1"}.
func cardFromRequest(req *structpb.Struct) (domain.Card, error) {
	id, err := stringField(req, "card")
	if err != nil {
		return domain.Card{}, err
	}
	return domain.ParseCardID(id)
}

// suitFromRequest reads {"suit": "copas"}.
func suitFromRequest(req *structpb.Struct) (domain.Suit, error) {
	name, err := stringField(req, "suit")
	if err != nil {
		return 0, err
	}
	return domain.ParseSuit(name)
}

// MatchLabel is what quick-match queries search on.
type MatchLabel struct {
	Game  string `json:"game"`
	Open  int    `json:"open"`
	State string `json:"state"`
}

func encodeLabel(l MatchLabel) (string, error) {
	s, err := toStruct(l)
	if err != nil {
		return "", err
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
