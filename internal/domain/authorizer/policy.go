package authorizer

// DenyAllDocument returns the fixed policy emitted whenever no entitlement
// can be established for the caller.
func DenyAllDocument() PolicyDocument {
	return PolicyDocument{
		Version: PolicyVersion,
		Statement: []Statement{{
			Effect:   EffectDeny,
			Action:   ActionList{"*"},
			Resource: []string{"*"},
		}},
	}
}

// IsDenyAll reports whether doc is the fixed deny-all document.
func IsDenyAll(doc PolicyDocument) bool {
	if len(doc.Statement) != 1 {
		return false
	}
	st := doc.Statement[0]
	return st.Effect == EffectDeny &&
		len(st.Action) == 1 && st.Action[0] == "*" &&
		len(st.Resource) == 1 && st.Resource[0] == "*"
}

// Compose unions the statement lists of every resolved record into one
// document, in store return order. The version tag comes from the first
// record. Zero records composes to the deny-all document.
func Compose(records []GroupPolicyRecord) PolicyDocument {
	if len(records) == 0 {
		return DenyAllDocument()
	}

	doc := PolicyDocument{Version: records[0].Policy.Version}
	if doc.Version == "" {
		doc.Version = PolicyVersion
	}

	for _, r := range records {
		doc.Statement = append(doc.Statement, r.Policy.Statement...)
	}

	return doc
}

// Filter narrows doc to the statements with at least one resource pattern
// covering target. The gateway caches the returned document keyed by
// principal and target, so anything broader would leak permission onto
// unrelated targets. Matching Deny statements are retained alongside Allows;
// the gateway's own deny-overrides evaluation settles conflicts between them.
// When nothing survives, the result is the deny-all document.
func Filter(doc PolicyDocument, target string) PolicyDocument {
	out := PolicyDocument{Version: doc.Version}

	for _, st := range doc.Statement {
		for _, pattern := range st.Resource {
			if MatchARN(target, pattern) {
				out.Statement = append(out.Statement, st)
				break
			}
		}
	}

	if len(out.Statement) == 0 {
		return DenyAllDocument()
	}

	return out
}
