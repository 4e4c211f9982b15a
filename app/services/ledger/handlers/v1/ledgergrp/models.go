package ledgergrp

import "github.com/ardanlabs/bookledger/foundation/blockchain/database"

// NewCheckout is what a client sends to record a checkout.
type NewCheckout struct {
	BookID string `json:"book_id" validate:"required,hexadecimal,len=32"`
	User   string `json:"user" validate:"required,max=128"`
}

type block struct {
	Number        uint64 `json:"number"`
	Hash          string `json:"hash"`
	PrevBlockHash string `json:"prev_block_hash"`
	TimeStamp     uint64 `json:"timestamp"`
	Nonce         string `json:"nonce"`
	BookID        string `json:"book_id"`
	BookTitle     string `json:"book_title,omitempty"`
	User          string `json:"user"`
	CheckoutDate  string `json:"checkout_timestamp"`
	IsGenesis     bool   `json:"is_genesis"`
}

type chain struct {
	Difficulty uint    `json:"difficulty"`
	Length     int     `json:"length"`
	Blocks     []block `json:"blocks"`
}

type validation struct {
	Valid     bool   `json:"valid"`
	Index     *int   `json:"index,omitempty"`
	Violation string `json:"violation,omitempty"`
}

func toBlock(blk database.Block, title string) block {
	bd := database.NewBlockData(blk)

	return block{
		Number:        bd.Header.Number,
		Hash:          bd.Hash,
		PrevBlockHash: bd.Header.PrevBlockHash,
		TimeStamp:     bd.Header.TimeStamp,
		Nonce:         database.EncodeNonce(bd.Header.Nonce),
		BookID:        bd.Data.BookID,
		BookTitle:     title,
		User:          bd.Data.User,
		CheckoutDate:  bd.Data.CheckoutTimestamp,
		IsGenesis:     bd.Data.IsGenesis,
	}
}
