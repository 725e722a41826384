package console

import (
	"github.com/ezrec/chip8/translate"
)

var f = translate.From
