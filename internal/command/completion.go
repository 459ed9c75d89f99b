// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"fmt"
	"io"
)

const bashCompletionScript = `# bash completion for cargo2port
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_cargo2port()
{
    local cur prev
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    local opts="--align -a --download --help -h --index --jobs -j --no-cache --version -v"

    case "$prev" in
        --align|-a)
            COMPREPLY=( $(compgen -W "normal maxlen multiline justify" -- "$cur") )
            return 0
            ;;
        --jobs|-j|--index|--download)
            return 0
            ;;
    esac

    if [[ "$cur" == -* ]]; then
        COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
        return 0
    fi

    # Positional: lockfile paths (name@version specifiers are typed by hand)
    COMPREPLY=( $(compgen -f -X '!*.lock' -- "$cur") $(compgen -d -- "$cur") )
    return 0
}

complete -F _cargo2port cargo2port
`

const zshCompletionScript = `#compdef cargo2port

_cargo2port() {
  _arguments -s \
    '(-a --align)'{-a,--align}'[alignment of emitted lines]:mode:(normal maxlen multiline justify)' \
    '--download[crate download template or s3 mirror]:url' \
    '--index[sparse registry index]:url' \
    '(-j --jobs)'{-j,--jobs}'[lockfiles loaded at once]:jobs' \
    '--no-cache[bypass the crate archive cache]' \
    '(- *)'{-v,--version}'[version info]' \
    '(- *)'{-h,--help}'[show help]' \
    '*:lockfile:_files -g "*.lock"'
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _cargo2port cargo2port
`

// WriteCompletion writes the completion script for shell to w.
func WriteCompletion(w io.Writer, shell string) error {
	switch shell {
	case "bash":
		_, err := fmt.Fprint(w, bashCompletionScript)
		return err
	case "zsh":
		_, err := fmt.Fprint(w, zshCompletionScript)
		return err
	}
	return fmt.Errorf("no completion script for %q", shell)
}
