// Package client is the linkboard Go SDK.
//
// It builds and signs board transactions, submits them to a node and reads
// back account and board state.
//
// # Creating a board
//
//	c, _ := client.New("http://localhost:8899")
//	payer, _ := keystore.Load(keystore.DefaultPath(), "")
//	boardKey, _ := address.NewKeypair()
//	receipt, err := c.Initialize(ctx, payer, boardKey)
//
// The payer funds the board's rent-exempt balance; MinimumBalance reports how
// much that is:
//
//	lamports, _ := c.MinimumBalance(ctx, board.Space)
//
// # Appending and reading
//
//	_, err = c.Append(ctx, boardKey.Address(), payer, "https://media.giphy.com/x.gif")
//	b, err := c.GetBoard(ctx, boardKey.Address())
//	for _, e := range b.Entries {
//	    fmt.Println(e.Link, e.Submitter)
//	}
//
// # Errors
//
// Non-2xx responses are returned as *APIError. Program failures carry the
// board program's error code, so they can be matched directly:
//
//	if errors.Is(err, board.ErrCapacityExceeded) {
//	    // the board is full
//	}
//
// # Faucet
//
// Development nodes expose an admin-only faucet:
//
//	c.AdminToken(ctx, adminSecret) // token is attached to later requests
//	c.Airdrop(ctx, payer.Address(), 1_000_000_000)
package client
