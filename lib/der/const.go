package der

const (
	// BOOLEAN_TRUE is the only DER encoding of TRUE, X.690 Section 11.1
	BOOLEAN_TRUE = 0xFF

	// UNUSED_BITS_NONE is the initial octet of a BIT STRING whose length is
	// a multiple of eight
	UNUSED_BITS_NONE = 0x00

	// VERSION_V3 is the INTEGER value of X.509 version 3
	VERSION_V3 = 2

	// VERSION_TAG is the context tag number of TBSCertificate.version
	VERSION_TAG = 0
)
