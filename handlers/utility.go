package handlers

import (
	"context"
	"strconv"

	"support-bot/commands"
)

func (h *Handlers) ping(_ context.Context, inv *commands.Invocation) error {
	h.reply(inv, "pong")
	return nil
}

func (h *Handlers) roll(_ context.Context, inv *commands.Invocation) error {
	_, err := h.send(inv.ChannelID, "roll_result", "roll", strconv.Itoa(h.intn(6)+1))
	return err
}

func (h *Handlers) flip(_ context.Context, inv *commands.Invocation) error {
	side := h.lang.T("flip_heads")
	if h.intn(2) == 1 {
		side = h.lang.T("flip_tails")
	}
	_, err := h.send(inv.ChannelID, "flip_result", "side", side)
	return err
}

func (h *Handlers) eightBall(_ context.Context, inv *commands.Invocation) error {
	answers := h.lang.List("eightball_answers")
	if len(answers) == 0 {
		return nil
	}
	_, err := h.send(inv.ChannelID, "eightball_result", "answer", answers[h.intn(len(answers))])
	return err
}
