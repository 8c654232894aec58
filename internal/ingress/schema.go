package ingress

import (
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// intentSchema bounds the shape of inbound signal payloads. Key presence
// is checked separately (the required sets differ for CLOSE); the schema
// guards types and enums.
const intentSchema = `{
  "type": "object",
  "properties": {
    "secret": {"type": "string"},
    "symbol": {"type": "string", "minLength": 1},
    "order_action": {"enum": ["BUY", "SELL", "CLOSE"]},
    "order_type": {"enum": ["MARKET", "IFOCO"]},
    "lot_size": {"type": "number", "exclusiveMinimum": 0},
    "entry_price": {"type": "number", "minimum": 0},
    "tp_price": {"type": "number", "minimum": 0},
    "sl_price": {"type": "number", "minimum": 0},
    "comment": {"type": "string"},
    "mt5_ticket": {"type": "integer", "minimum": 1},
    "scenario": {"type": "boolean"},
    "scenario_activate_price": {"type": "number", "minimum": 0},
    "scenario_cancel_price": {"type": "number", "minimum": 0},
    "breakeven": {"type": "boolean"},
    "trailing_stop": {"type": "boolean"},
    "add_position_levels": {"type": "integer", "minimum": 0}
  }
}`

func compileIntentSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("intent.json", strings.NewReader(intentSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile("intent.json")
}

// Required key sets from the queue message contract.
var (
	requiredKeysOpen  = []string{"symbol", "order_action", "order_type", "lot_size", "tp_price", "sl_price"}
	requiredKeysClose = []string{"symbol", "order_action", "order_type", "lot_size", "mt5_ticket"}
)
