package topic

import (
	"errors"
	"testing"
)

func TestTopic_Segments(t *testing.T) {
	tests := []struct {
		topic    Topic
		expected []string
	}{
		{Topic("sales.order.created"), []string{"sales", "order", "created"}},
		{Topic("CustomerSelected"), []string{"CustomerSelected"}},
		{Topic(""), nil},
	}

	for _, tt := range tests {
		t.Run(tt.topic.String(), func(t *testing.T) {
			got := tt.topic.Segments()
			if len(got) != len(tt.expected) {
				t.Fatalf("Segments() = %v, want %v", got, tt.expected)
			}
			for i, seg := range got {
				if seg != tt.expected[i] {
					t.Errorf("Segments()[%d] = %v, want %v", i, seg, tt.expected[i])
				}
			}
			if tt.topic.SegmentCount() != len(tt.expected) {
				t.Errorf("SegmentCount() = %d, want %d", tt.topic.SegmentCount(), len(tt.expected))
			}
		})
	}
}

func TestTopic_Base(t *testing.T) {
	if got := Topic("sales.order.created").Base(); got != "created" {
		t.Errorf("Base() = %q, want created", got)
	}
	if got := Topic("CustomerSelected").Base(); got != "CustomerSelected" {
		t.Errorf("Base() = %q, want CustomerSelected", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"CustomerSelected", false},
		{"sales.order.created", false},
		{"", true},
		{".sales", true},
		{"sales.", true},
		{"sales..order", true},
		{"sales order", true},
		{"sales.*", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidTopic) {
				t.Errorf("error %v does not match ErrInvalidTopic", err)
			}
		})
	}
}

func TestParsePattern(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"sales.*", false},
		{"sales.**", false},
		{"**", false},
		{"*.created", false},
		{"sales.ord*", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if _, err := ParsePattern(tt.input); (err != nil) != tt.wantErr {
				t.Errorf("ParsePattern(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestTopic_Matches(t *testing.T) {
	tests := []struct {
		topic   Topic
		pattern Topic
		want    bool
	}{
		{"sales.opened", "sales.opened", true},
		{"sales.opened", "sales.closed", false},
		{"sales.opened", "sales.*", true},
		{"sales.order.created", "sales.*", false},
		{"sales.order.created", "sales.**", true},
		{"sales", "sales.**", true},
		{"order.created", "*.created", true},
		{"sales.order.created", "sales.*.created", true},
		{"anything.at.all", "**", true},
		{"sales.order", "**.order", true},
		{"sales", "sales.*", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.topic)+"~"+string(tt.pattern), func(t *testing.T) {
			if got := tt.topic.Matches(tt.pattern); got != tt.want {
				t.Errorf("%q.Matches(%q) = %v, want %v", tt.topic, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestJoin(t *testing.T) {
	if got := Join("sales", "order", "created"); got != "sales.order.created" {
		t.Errorf("Join() = %q", got)
	}
}
