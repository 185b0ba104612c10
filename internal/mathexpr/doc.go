/*
Package mathexpr evaluates calculator expressions using decimal arithmetic.

Expressions are built from decimal numbers, the binary operators + - × ÷, postfix percent
and parentheses. The ASCII forms * and / are accepted for × and ÷, as is the Unicode minus
sign. Blanks are ignored.

Precedence, from tightest to loosest:

	( )      grouping
	%        percent, divides the operand on its left by 100
	-        sign of an operand; a run of signs multiplies out (--5 is 5)
	× ÷      left to right
	+ -      left to right; subtraction adds the negated right operand

A minus sign that directly follows a complete operand is a subtraction, every other minus
belongs to the operand that follows it. So 5--3 is 8 and 5×-3 is -15. A plus sign is
always binary: +3 and 5-+3 are rejected.

Results are rendered to fit a maximum number of characters, sign and decimal point
included. Fractional digits that do not fit are rounded away, and an integer part that does
not fit is reported as [ErrResultTooLarge].
*/
package mathexpr
