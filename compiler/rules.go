package compiler

import "wisp/token"

// precedence is the binding power used by parsePrecedence (spec §4.E Pratt
// table), ordered loosest to tightest exactly as the teacher's Precedence
// enum (compiler/compiler.go), extended with the bitwise tiers and power
// wisp's grammar adds.
type precedence uint8

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precBitOr                 // |
	precBitXor                // ^
	precBitAnd                // &
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * / %
	precPower                 // **
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(p *Parser, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[token.Type]parseRule

func init() {
	rules = map[token.Type]parseRule{
		token.LeftParen:     {(*Parser).grouping, (*Parser).call, precCall},
		token.RightParen:    {nil, nil, precNone},
		token.LeftBrace:     {nil, nil, precNone},
		token.RightBrace:    {nil, nil, precNone},
		token.LeftBracket:   {nil, nil, precNone},
		token.RightBracket:  {nil, nil, precNone},
		token.Comma:         {nil, nil, precNone},
		token.Dot:           {nil, (*Parser).dot, precCall},
		token.DotDotDot:     {nil, nil, precNone},
		token.Colon:         {nil, nil, precNone},
		token.Semicolon:     {nil, nil, precNone},
		token.Minus:         {(*Parser).unary, (*Parser).binary, precTerm},
		token.MinusEqual:    {nil, nil, precNone},
		token.Plus:          {nil, (*Parser).binary, precTerm},
		token.PlusEqual:     {nil, nil, precNone},
		token.Slash:         {nil, (*Parser).binary, precFactor},
		token.SlashEqual:    {nil, nil, precNone},
		token.Star:          {nil, (*Parser).binary, precFactor},
		token.StarEqual:     {nil, nil, precNone},
		token.StarStar:      {nil, (*Parser).binary, precPower},
		token.Percent:       {nil, (*Parser).binary, precFactor},
		token.PercentEqual:  {nil, nil, precNone},
		token.Bang:          {(*Parser).unary, nil, precNone},
		token.BangEqual:     {nil, (*Parser).binary, precEquality},
		token.Equal:         {nil, nil, precNone},
		token.EqualEqual:    {nil, (*Parser).binary, precEquality},
		token.Greater:       {nil, (*Parser).binary, precComparison},
		token.GreaterEqual:  {nil, (*Parser).binary, precComparison},
		token.Less:          {nil, (*Parser).binary, precComparison},
		token.LessEqual:     {nil, (*Parser).binary, precComparison},
		token.Amp:           {nil, (*Parser).binary, precBitAnd},
		token.AmpEqual:      {nil, nil, precNone},
		token.Caret:         {nil, (*Parser).binary, precBitXor},
		token.CaretEqual:    {nil, nil, precNone},
		token.Pipe:          {nil, (*Parser).binary, precBitOr},
		token.PipeEqual:     {nil, nil, precNone},
		token.Identifier:    {(*Parser).variable, nil, precNone},
		token.String:        {(*Parser).stringLiteral, nil, precNone},
		token.Number:        {(*Parser).number, nil, precNone},
		token.And:           {nil, (*Parser).and, precAnd},
		token.As:            {nil, nil, precNone},
		token.Break:         {nil, nil, precNone},
		token.Class:         {nil, nil, precNone},
		token.Const:         {nil, nil, precNone},
		token.Continue:      {nil, nil, precNone},
		token.Def:           {nil, nil, precNone},
		token.Del:           {nil, nil, precNone},
		token.Else:          {nil, nil, precNone},
		token.False:         {(*Parser).literal, nil, precNone},
		token.For:           {nil, nil, precNone},
		token.From:          {nil, nil, precNone},
		token.If:            {nil, nil, precNone},
		token.Import:        {nil, nil, precNone},
		token.Nil:           {(*Parser).literal, nil, precNone},
		token.Or:            {nil, (*Parser).or, precOr},
		token.Private:       {nil, nil, precNone},
		token.Return:        {nil, nil, precNone},
		token.Static:        {nil, nil, precNone},
		token.Super:         {(*Parser).super, nil, precNone},
		token.This:          {(*Parser).this, nil, precNone},
		token.True:          {(*Parser).literal, nil, precNone},
		token.Var:           {nil, nil, precNone},
		token.While:         {nil, nil, precNone},
		token.Error:         {nil, nil, precNone},
		token.EOF:           {nil, nil, precNone},
	}
}
