package domain

import "errors"

var (
	// ErrBetOutstanding se devuelve al registrar una segunda apuesta para un
	// issue que ya tiene una sin liquidar.
	ErrBetOutstanding = errors.New("issue already has an outstanding bet")
	// ErrNoOutstandingBet se devuelve al liquidar un issue sin apuesta pendiente.
	ErrNoOutstandingBet = errors.New("no outstanding bet for issue")
	// ErrAlreadySettled se devuelve si la apuesta ya estaba liquidada.
	ErrAlreadySettled = errors.New("bet already settled")
)
