// Package credential handles password logins and second-factor waits for
// the browser session.
//
// Flow:
//  1. Resolve: map the auth type to an environment variable through a
//     Namer (pre-registered aliases, then the NAME_PASSWORD convention) and
//     look the secret up. A caller-supplied password wins. With neither,
//     the caller gets *PasswordRequired and is expected to ask the operator.
//  2. Submit: fill the password, click submit when a selector is given,
//     wait for the network to settle (a timeout here is tolerated).
//  3. Detect: look for second-factor markers in the URL and page text,
//     English and Japanese.
//  4. WaitFor2FA: poll until the operator finishes the challenge out of
//     band or the wait times out.
//  5. Save: persist a caller-supplied password to the env file so later
//     calls resolve it without asking.
//
// Secrets are never logged. Log lines carry the variable name only.
package credential
