package main

import (
	"fmt"
	"strings"

	"broker-ledger/internal/types"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var (
		account      string
		requestToken string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange a request token for an access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.account(account)
			if err != nil {
				return err
			}
			creds := credentialsFor(acct)
			creds.RequestToken = requestToken
			if requestToken != "" {
				creds.AccessToken = ""
			}

			gw := newGateway(cmd.Context(), a.cfg, acct, "")
			s, err := gw.Login(cmd.Context(), creds)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if acct.AccessTokenEnv != "" && s.AccessToken != creds.AccessToken {
				fmt.Fprintf(out, "export %s=%s\n", acct.AccessTokenEnv, s.AccessToken)
			}
			return printJSON(out, s)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account name (default first configured)")
	cmd.Flags().StringVar(&requestToken, "request-token", "", "request token from the broker login redirect")
	return cmd
}

func newPositionsCmd(a *app) *cobra.Command {
	var (
		account string
		all     bool
	)

	cmd := &cobra.Command{
		Use:   "positions",
		Short: "Show open positions (buy and sell quantities differ)",
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.account(account)
			if err != nil {
				return err
			}
			ba, err := openAccount(cmd.Context(), a, acct, "")
			if err != nil {
				return err
			}

			if all {
				hs, err := ba.Holdings(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), hs)
			}

			in, open, err := ba.OpenPositions(cmd.Context())
			if err != nil {
				return err
			}
			if open == nil {
				open = []types.Position{}
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"in_position": in, "positions": open})
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account name (default first configured)")
	cmd.Flags().BoolVar(&all, "holdings", false, "show delivery holdings instead")
	return cmd
}

func newFundsCmd(a *app) *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "funds",
		Short: "Show net funds available to trade",
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.account(account)
			if err != nil {
				return err
			}
			ba, err := openAccount(cmd.Context(), a, acct, "")
			if err != nil {
				return err
			}
			funds, err := ba.AvailableFunds(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"account": acct.Name, "available": funds.String()})
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account name (default first configured)")
	return cmd
}

func newOrderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Place, modify or cancel orders",
	}

	cmd.AddCommand(
		newOrderPlaceCmd(a),
		newOrderModifyCmd(a),
		newOrderCancelCmd(a),
	)
	return cmd
}

func newOrderPlaceCmd(a *app) *cobra.Command {
	var (
		account string
		segment string
		symbol  string
		side    string
		qty     int
	)

	cmd := &cobra.Command{
		Use:   "place",
		Short: "Place a market order and wait for its fill price",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := types.Side(strings.ToUpper(side))
			if s != types.SideBuy && s != types.SideSell {
				return fmt.Errorf("--side must be BUY or SELL, got %q", side)
			}
			if symbol == "" || qty <= 0 {
				return fmt.Errorf("--symbol and a positive --qty are required")
			}
			acct, err := a.account(account)
			if err != nil {
				return err
			}
			ba, err := openAccount(cmd.Context(), a, acct, "")
			if err != nil {
				return err
			}
			if segment == "" {
				segment = a.cfg.Exchange
			}

			price, err := ba.PlaceMarketOrder(cmd.Context(), segment, symbol, qty, s)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"symbol": symbol, "side": string(s), "entry_price": price.String()})
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account name (default first configured)")
	cmd.Flags().StringVar(&segment, "segment", "", "exchange segment (default from config)")
	cmd.Flags().StringVar(&symbol, "symbol", "", "trading symbol, e.g. NIFTY24JAN21500CE")
	cmd.Flags().StringVar(&side, "side", "", "BUY or SELL")
	cmd.Flags().IntVar(&qty, "qty", 0, "quantity")
	return cmd
}

func newOrderModifyCmd(a *app) *cobra.Command {
	var (
		account   string
		qty       int
		price     string
		trigger   string
		orderType string
	)

	cmd := &cobra.Command{
		Use:   "modify ORDER_ID",
		Short: "Modify an open order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := types.ModifyReq{Qty: qty, OrderType: strings.ToUpper(orderType), Validity: "DAY"}
			var err error
			if price != "" {
				if req.Price, err = decimal.NewFromString(price); err != nil {
					return fmt.Errorf("bad --price: %w", err)
				}
			}
			if trigger != "" {
				if req.TriggerPrice, err = decimal.NewFromString(trigger); err != nil {
					return fmt.Errorf("bad --trigger: %w", err)
				}
			}

			acct, err := a.account(account)
			if err != nil {
				return err
			}
			ba, err := openAccount(cmd.Context(), a, acct, "")
			if err != nil {
				return err
			}
			resp, err := ba.ModifyOrder(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account name (default first configured)")
	cmd.Flags().IntVar(&qty, "qty", 0, "new quantity")
	cmd.Flags().StringVar(&price, "price", "", "new limit price")
	cmd.Flags().StringVar(&trigger, "trigger", "", "new trigger price")
	cmd.Flags().StringVar(&orderType, "type", "LIMIT", "order type")
	return cmd
}

func newOrderCancelCmd(a *app) *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "cancel ORDER_ID",
		Short: "Cancel an open order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.account(account)
			if err != nil {
				return err
			}
			ba, err := openAccount(cmd.Context(), a, acct, "")
			if err != nil {
				return err
			}
			resp, err := ba.CancelOrder(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account name (default first configured)")
	return cmd
}
