package types

// Version is the canonical project version.
// All components (library, CLI) share this version per the lockstep
// versioning policy.
const Version = "0.1.0"
