package sqlinline

const QInsertPayment = `--sql ee9f1551-29ee-4d61-a4cd-2c3c09533149
insert into payments(creator_id, supporter_id, tier_id, amount, type, payment_gateway, gateway_order_id, status,
                     supporter_name, supporter_email, supporter_phone, is_anonymous, created_at)
values ($1::bigint, $2::bigint, $3::bigint, $4::numeric, $5::text, $6::text, $7::text, 'pending',
        $8::text, nullif($9::text, ''), nullif($10::text, ''), $11::boolean, now())
returning id, status, created_at;
`

const QSelectPaymentByOrderID = `--sql c73c8251-692b-4a14-8ab8-1c152bd57b66
select id, creator_id, supporter_id, tier_id, amount::text, type, payment_gateway, gateway_order_id, status,
       coalesce(supporter_name, ''), coalesce(supporter_email, ''), coalesce(supporter_phone, ''), is_anonymous, created_at
from payments
where gateway_order_id = $1::text;
`

const QSelectPaymentByID = `--sql 604f10ef-a0c5-4980-863f-5d3c5aeadd73
select id, creator_id, supporter_id, tier_id, amount::text, type, payment_gateway, gateway_order_id, status,
       coalesce(supporter_name, ''), coalesce(supporter_email, ''), coalesce(supporter_phone, ''), is_anonymous, created_at
from payments
where id = $1::bigint;
`

// QFinalizePayment is the idempotency gate: the row only changes while it is
// still pending, so concurrent callers see exactly one returned row.
const QFinalizePayment = `--sql 1437bbd9-56c3-4ae7-9314-4c2b368eff51
update payments
set status = $2::text, finalized_at = $3::timestamptz
where gateway_order_id = $1::text
  and status = 'pending'
returning id, creator_id, supporter_id, tier_id, amount::text, type, payment_gateway, gateway_order_id, status,
          coalesce(supporter_name, ''), coalesce(supporter_email, ''), coalesce(supporter_phone, ''), is_anonymous, created_at;
`

const QListStalePendingPayments = `--sql 11f2faf0-a41a-45a4-b391-e7f3b396ea3e
select id, creator_id, supporter_id, tier_id, amount::text, type, payment_gateway, gateway_order_id, status,
       coalesce(supporter_name, ''), coalesce(supporter_email, ''), coalesce(supporter_phone, ''), is_anonymous, created_at
from payments
where status = 'pending'
  and created_at < $1::timestamptz
order by created_at asc
limit $2::int;
`
