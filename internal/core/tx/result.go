package tx

import "fmt"

// Result represents a transaction result code.
//
// Codes follow the engine's taxonomy: tes (success), tec (the precondition
// or resource check failed against committed state), tem (the transaction
// itself is malformed), tef (the transaction cannot be processed at all).
// Every non-tes result aborts the single logical transaction; no partial
// state is ever committed.
type Result int

const (
	TesSUCCESS Result = 0

	// tec: valid transaction, state rejected it (100+)
	TecINSUFFICIENT_LIQUIDITY    Result = 101
	TecINSUFFICIENT_SUPPLY       Result = 102
	TecSUPPLY_EXCEEDED           Result = 103
	TecINSUFFICIENT_BALANCE      Result = 104
	TecSLIPPAGE                  Result = 105
	TecNO_ENTRY                  Result = 106
	TecNO_PERMISSION             Result = 107
	TecORDER_NOT_OPEN            Result = 108
	TecINSUFFICIENT_ORDER_AMOUNT Result = 109
	TecDUPLICATE                 Result = 110

	// tef: processing failure (-199 to -100)
	TefNO_AUTH      Result = -199
	TefALREADY_INIT Result = -198
	TefNOT_INIT     Result = -197
	TefINTERNAL     Result = -196

	// tem: malformed transaction (-299 to -200)
	TemINVALID_AMOUNT Result = -299
	TemINVALID_PRICE  Result = -298
	TemMALFORMED      Result = -297
)

var resultNames = map[Result]string{
	TesSUCCESS:                   "tesSUCCESS",
	TecINSUFFICIENT_LIQUIDITY:    "tecINSUFFICIENT_LIQUIDITY",
	TecINSUFFICIENT_SUPPLY:       "tecINSUFFICIENT_SUPPLY",
	TecSUPPLY_EXCEEDED:           "tecSUPPLY_EXCEEDED",
	TecINSUFFICIENT_BALANCE:      "tecINSUFFICIENT_BALANCE",
	TecSLIPPAGE:                  "tecSLIPPAGE",
	TecNO_ENTRY:                  "tecNO_ENTRY",
	TecNO_PERMISSION:             "tecNO_PERMISSION",
	TecORDER_NOT_OPEN:            "tecORDER_NOT_OPEN",
	TecINSUFFICIENT_ORDER_AMOUNT: "tecINSUFFICIENT_ORDER_AMOUNT",
	TecDUPLICATE:                 "tecDUPLICATE",
	TefNO_AUTH:                   "tefNO_AUTH",
	TefALREADY_INIT:              "tefALREADY_INIT",
	TefNOT_INIT:                  "tefNOT_INIT",
	TefINTERNAL:                  "tefINTERNAL",
	TemINVALID_AMOUNT:            "temINVALID_AMOUNT",
	TemINVALID_PRICE:             "temINVALID_PRICE",
	TemMALFORMED:                 "temMALFORMED",
}

// String returns the canonical code name.
func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

// Success reports whether the result commits state.
func (r Result) Success() bool {
	return r == TesSUCCESS
}
