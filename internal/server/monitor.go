package server

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/feltcraft/tabled/internal/auth"
	"github.com/feltcraft/tabled/poker"
)

// monitorStyles contains styling for monitor output
type monitorStyles struct {
	Hand     lipgloss.Style
	Street   lipgloss.Style
	Action   lipgloss.Style
	Winner   lipgloss.Style
	CardRed  lipgloss.Style
	CardBlk  lipgloss.Style
	Frozen   lipgloss.Style
	Renderer *lipgloss.Renderer
}

func newMonitorStyles(w io.Writer) *monitorStyles {
	r := lipgloss.NewRenderer(w)
	// Color only when the writer is a terminal that wants it.
	r.SetColorProfile(termenv.NewOutput(w).EnvColorProfile())
	return &monitorStyles{
		Hand: r.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true),
		Street: r.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		Action: r.NewStyle().
			Foreground(lipgloss.Color("#74B9FF")),
		Winner: r.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		CardRed: r.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		CardBlk: r.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true),
		Frozen: r.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		Renderer: r,
	}
}

// TableMonitor subscribes to one table and renders its broadcast stream for
// an operator terminal. It sees the spectator view: no hole cards until a
// showdown reveal arrives in HAND_RESULT.
type TableMonitor struct {
	identity auth.Identity
	writer   io.Writer
	styles   *monitorStyles

	mu       sync.Mutex
	bigBlind int
	hands    int
}

// NewTableMonitor creates a monitor writing to w. A nil writer means stdout.
func NewTableMonitor(w io.Writer, tableID string) *TableMonitor {
	if w == nil {
		w = os.Stdout
	}
	return &TableMonitor{
		identity: auth.Identity{UserID: "monitor:" + tableID, DisplayName: "monitor"},
		writer:   w,
		styles:   newMonitorStyles(w),
	}
}

func (m *TableMonitor) Identity() auth.Identity { return m.identity }

// Send implements the subscriber side of the wire protocol.
func (m *TableMonitor) Send(msg *Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch msg.Type {
	case MessageHandStarted:
		var data HandStartedData
		if json.Unmarshal(msg.Data, &data) != nil {
			return
		}
		m.bigBlind = data.BigBlind
		m.hands++
		players := 0
		for _, s := range data.Seats {
			if s.UserID != "" {
				players++
			}
		}
		fmt.Fprintf(m.writer, "%s %d players $%d/$%d\n",
			m.styles.Hand.Render(data.HandID), players, data.SmallBlind, data.BigBlind)

	case MessageCommunityCards:
		var data CommunityCardsData
		if json.Unmarshal(msg.Data, &data) != nil {
			return
		}
		fmt.Fprintf(m.writer, "  %s %s\n",
			m.styles.Street.Render(strings.ToUpper(data.Phase)), m.renderCards(data.Cards))

	case MessageTableStateUpdate:
		var data TableStateUpdateData
		if json.Unmarshal(msg.Data, &data) != nil {
			return
		}
		if data.UpdateType != "action" {
			return
		}
		line := fmt.Sprintf("seat %v %v", data.Changes["position"], data.Changes["action"])
		if amount, ok := data.Changes["amount"].(float64); ok && amount > 0 {
			line += fmt.Sprintf(" %d", int(amount))
		}
		if data.Changes["synthetic"] == true {
			line += " (timeout)"
		}
		fmt.Fprintf(m.writer, "  %s\n", m.styles.Action.Render(line))

	case MessageHandResult:
		var data HandResultData
		if json.Unmarshal(msg.Data, &data) != nil {
			return
		}
		var winners []string
		for _, w := range data.Winners {
			label := fmt.Sprintf("seat %d +%d", w.Position, w.Amount)
			if m.bigBlind > 0 {
				label += fmt.Sprintf(" (%.1f BB)", float64(w.Amount)/float64(m.bigBlind))
			}
			winners = append(winners, label)
		}
		fmt.Fprintf(m.writer, "  %s\n", m.styles.Winner.Render(strings.Join(winners, ", ")))
		for _, rev := range data.Showdown {
			fmt.Fprintf(m.writer, "  seat %d shows %s %s\n",
				rev.Position, m.renderCards(rev.HoleCards), rev.HandRank)
		}

	case MessageError:
		var data ErrorData
		if json.Unmarshal(msg.Data, &data) != nil {
			return
		}
		if data.ErrorCode == CodeTableFrozen {
			fmt.Fprintf(m.writer, "%s %s\n", m.styles.Frozen.Render("TABLE FROZEN:"), data.Details)
		}
	}
}

func (m *TableMonitor) renderCards(cards []poker.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		s := c.String()
		switch {
		case strings.HasSuffix(s, "h"), strings.HasSuffix(s, "d"):
			parts[i] = m.styles.CardRed.Render(s)
		default:
			parts[i] = m.styles.CardBlk.Render(s)
		}
	}
	return strings.Join(parts, " ")
}
