package all

import (
	_ "github.com/sagan/promptmeta/cmd/diff"
	_ "github.com/sagan/promptmeta/cmd/index"
	_ "github.com/sagan/promptmeta/cmd/inspect"
	_ "github.com/sagan/promptmeta/cmd/parse"
	_ "github.com/sagan/promptmeta/cmd/schema"
	_ "github.com/sagan/promptmeta/cmd/workflow"
)
