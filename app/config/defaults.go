package config

import (
	_ "embed"
)

//go:embed persona_prompt.txt
var DefaultPersona string

const DefaultCaption = "🔒 <b>Exclusive {content} unlock</b>\n\nPay {price} stars to view!"
