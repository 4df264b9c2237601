package models

import (
	"encoding/json"
	"fmt"
)

// taggedPayload is the wire form of a Payload: its kind next to its body
type taggedPayload struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

var payloadDecoders = map[string]func([]byte) (Payload, error){
	RetrievalPayload{}.Kind():        decodePayload[RetrievalPayload],
	AvailabilityPayload{}.Kind():     decodePayload[AvailabilityPayload],
	PricePayload{}.Kind():            decodePayload[PricePayload],
	RecommendationPayload{}.Kind():   decodePayload[RecommendationPayload],
	OrdersPayload{}.Kind():           decodePayload[OrdersPayload],
	OrderDetailPayload{}.Kind():      decodePayload[OrderDetailPayload],
	CheckoutPayload{}.Kind():         decodePayload[CheckoutPayload],
	ImmersivePayload{}.Kind():        decodePayload[ImmersivePayload],
	MetricsPayload{}.Kind():          decodePayload[MetricsPayload],
	InsightsPayload{}.Kind():         decodePayload[InsightsPayload],
	AnalyticsSummaryPayload{}.Kind(): decodePayload[AnalyticsSummaryPayload],
	TonePayload{}.Kind():             decodePayload[TonePayload],
}

func decodePayload[T Payload](raw []byte) (Payload, error) {
	var p T
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return p, nil
}

type agentResponseJSON AgentResponse

// MarshalJSON writes the payload as {"kind": ..., "data": ...}
func (r AgentResponse) MarshalJSON() ([]byte, error) {
	out := struct {
		agentResponseJSON
		Payload *taggedPayload `json:"payload,omitempty"`
	}{agentResponseJSON: agentResponseJSON(r)}

	if r.Payload != nil {
		data, err := json.Marshal(r.Payload)
		if err != nil {
			return nil, fmt.Errorf("payload %s: %w", r.Payload.Kind(), err)
		}
		out.Payload = &taggedPayload{Kind: r.Payload.Kind(), Data: data}
	}
	return json.Marshal(out)
}

func (r *AgentResponse) UnmarshalJSON(b []byte) error {
	var in struct {
		agentResponseJSON
		Payload *taggedPayload `json:"payload,omitempty"`
	}
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}

	*r = AgentResponse(in.agentResponseJSON)
	r.Payload = nil
	if in.Payload == nil {
		return nil
	}

	decode, ok := payloadDecoders[in.Payload.Kind]
	if !ok {
		return fmt.Errorf("unknown payload kind %q", in.Payload.Kind)
	}
	p, err := decode(in.Payload.Data)
	if err != nil {
		return fmt.Errorf("payload %s: %w", in.Payload.Kind, err)
	}
	r.Payload = p
	return nil
}
